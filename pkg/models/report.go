package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StageLog is one entry of the processing log, in the wire shape consumed
// by presentation layers.
type StageLog struct {
	Agent          string   `json:"agent"`
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Confidence     float64  `json:"confidence"`
	Enhancements   []string `json:"enhancements,omitempty"`
	Optimizations  []string `json:"optimizations,omitempty"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	Substitutions  []string `json:"substitutions,omitempty"`
}

// Improvements holds per-category change counts derived from the change log.
type Improvements struct {
	SyntaxCorrections int `json:"syntax_corrections"`
	WhereEnhancements int `json:"where_enhancements"`
	Optimizations     int `json:"optimizations"`
	ColumnFixes       int `json:"column_fixes"`
}

// CandidateResult describes one generation candidate from parallel mode.
// Losing candidates are retained for transparency but never processed
// further.
type CandidateResult struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	SQL              string  `json:"sql,omitempty"`
	Score            float64 `json:"score"`
	GenerationSecs   float64 `json:"generation_secs"`
	Error            string  `json:"error,omitempty"`
	Winner           bool    `json:"winner"`
	AgreesWithWinner bool    `json:"agrees_with_winner"`
}

// PipelineReport is the externally visible result of one pipeline run.
// Built once at the end of a run; immutable afterward.
type PipelineReport struct {
	RunID             uuid.UUID         `json:"run_id"`
	Success           bool              `json:"success"`
	FinalSQL          string            `json:"final_query"`
	OriginalSQL       string            `json:"original_query"`
	ProcessingLog     []StageLog        `json:"processing_log"`
	Changes           []Change          `json:"changes"`
	OverallConfidence float64           `json:"overall_confidence"`
	Fatal             bool              `json:"fatal"`
	ContextSignals    []ContextSignal   `json:"context_signals_used"`
	Improvements      Improvements      `json:"improvements"`
	Attempts          int               `json:"attempts"`
	Candidates        []CandidateResult `json:"candidates,omitempty"`
}

// Explain renders a human-readable narrative of the processing log.
func (r *PipelineReport) Explain() string {
	var b strings.Builder

	if r.Fatal {
		b.WriteString("Query processing completed with unresolved identifiers; the query must not be executed without correction.\n\n")
	} else {
		b.WriteString("Query successfully processed through the enhancement pipeline.\n\n")
	}

	for i, step := range r.ProcessingLog {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, step.Agent, step.Message)
		for _, e := range step.Enhancements {
			fmt.Fprintf(&b, "   - %s\n", e)
		}
		for _, o := range step.Optimizations {
			fmt.Fprintf(&b, "   - %s\n", o)
		}
		for _, s := range step.Substitutions {
			fmt.Fprintf(&b, "   - substituted %s\n", s)
		}
		for _, m := range step.MissingColumns {
			fmt.Fprintf(&b, "   - unresolved: %s\n", m)
		}
	}

	fmt.Fprintf(&b, "\nOverall confidence: %.0f%%\n", r.OverallConfidence*100)

	imp := r.Improvements
	if imp.SyntaxCorrections+imp.WhereEnhancements+imp.Optimizations+imp.ColumnFixes > 0 {
		b.WriteString("\nImprovements:\n")
		if imp.SyntaxCorrections > 0 {
			fmt.Fprintf(&b, "- %d syntax corrections\n", imp.SyntaxCorrections)
		}
		if imp.WhereEnhancements > 0 {
			fmt.Fprintf(&b, "- %d WHERE clause enhancements\n", imp.WhereEnhancements)
		}
		if imp.Optimizations > 0 {
			fmt.Fprintf(&b, "- %d query optimizations\n", imp.Optimizations)
		}
		if imp.ColumnFixes > 0 {
			fmt.Fprintf(&b, "- %d column fixes\n", imp.ColumnFixes)
		}
	}

	return b.String()
}
