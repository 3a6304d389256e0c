package models

// Dialect names a target SQL syntax variant.
type Dialect string

const (
	DialectDB2      Dialect = "db2"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ValidDialects contains all supported target dialects.
var ValidDialects = []Dialect{DialectDB2, DialectPostgres, DialectSQLite}

// IsValidDialect reports whether d is a supported target dialect.
func IsValidDialect(d Dialect) bool {
	for _, v := range ValidDialects {
		if v == d {
			return true
		}
	}
	return false
}

const (
	// InitialConfidence is the confidence assigned to a fresh QueryState
	// before any stage has run.
	InitialConfidence = 0.5
)

// QueryState is the unit of work threaded through the pipeline. It is owned
// exclusively by the orchestrator for the duration of one run; stages mutate
// SQLText and append to the change log, nothing else touches it.
type QueryState struct {
	SQLText      string
	OriginalSQL  string
	QuestionText string
	Dialect      Dialect

	ChangeLog  []Change
	Confidence float64
	Fatal      bool
	Attempt    int // regeneration attempt number, 0 for the first candidate
}

// NewQueryState creates a QueryState for one pipeline run.
func NewQueryState(sqlText, question string, dialect Dialect) *QueryState {
	return &QueryState{
		SQLText:      sqlText,
		OriginalSQL:  sqlText,
		QuestionText: question,
		Dialect:      dialect,
		Confidence:   InitialConfidence,
	}
}

// Record appends a change and applies its confidence delta, clamped to [0,1].
// An identifier_unresolvable change also marks the state fatal; the fatal
// flag is monotonic and is never cleared within a run.
func (qs *QueryState) Record(c Change) {
	qs.ChangeLog = append(qs.ChangeLog, c)
	qs.Confidence = clamp01(qs.Confidence + c.ConfidenceDelta)
	if c.Kind == ChangeIdentifierUnresolvable {
		qs.Fatal = true
	}
}

// ChangesForStage returns the changes recorded by the named stage, in order.
func (qs *QueryState) ChangesForStage(stage string) []Change {
	var out []Change
	for _, c := range qs.ChangeLog {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}

// CountByKind tallies the change log by kind.
func (qs *QueryState) CountByKind(kind ChangeKind) int {
	n := 0
	for _, c := range qs.ChangeLog {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
