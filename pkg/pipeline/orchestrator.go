package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/apperrors"
	"github.com/pipewise/sqlforge/pkg/audit"
	"github.com/pipewise/sqlforge/pkg/catalog"
	"github.com/pipewise/sqlforge/pkg/llm"
	"github.com/pipewise/sqlforge/pkg/logging"
	"github.com/pipewise/sqlforge/pkg/models"
	"github.com/pipewise/sqlforge/pkg/prompts"
	"github.com/pipewise/sqlforge/pkg/question"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

// Config carries the pipeline's tunable heuristics. The deltas and
// thresholds are empirical; they live here rather than as constants so
// deployments can adjust them without a rebuild.
type Config struct {
	MaxRegenerations  int     `yaml:"max_regenerations" env:"PIPELINE_MAX_REGENERATIONS" env-default:"2"`
	RowCap            int     `yaml:"row_cap" env:"PIPELINE_ROW_CAP" env-default:"1000"`
	FilterDelta       float64 `yaml:"filter_delta" env:"PIPELINE_FILTER_DELTA" env-default:"0.05"`
	FixDelta          float64 `yaml:"fix_delta" env:"PIPELINE_FIX_DELTA" env-default:"-0.05"`
	UnresolvableDelta float64 `yaml:"unresolvable_delta" env:"PIPELINE_UNRESOLVABLE_DELTA" env-default:"-0.3"`
	CapDelta          float64 `yaml:"cap_delta" env:"PIPELINE_CAP_DELTA" env-default:"0.02"`
	FatalPenalty      float64 `yaml:"fatal_penalty" env:"PIPELINE_FATAL_PENALTY" env-default:"0.5"`
	FuzzyMinSubstring int     `yaml:"fuzzy_min_substring" env:"PIPELINE_FUZZY_MIN_SUBSTRING" env-default:"3"`
}

// DefaultConfig returns the default pipeline tuning.
func DefaultConfig() Config {
	return Config{
		MaxRegenerations:  2,
		RowCap:            1000,
		FilterDelta:       0.05,
		FixDelta:          -0.05,
		UnresolvableDelta: -0.3,
		CapDelta:          0.02,
		FatalPenalty:      0.5,
		FuzzyMinSubstring: 3,
	}
}

// Orchestrator drives one QueryState through the stages in fixed order:
// normalize, inject filters, validate identifiers, advise. The pipeline is
// strictly sequential per state; stages never run concurrently for the
// same query. A fatal validation result triggers the bounded regeneration
// loop when a generator is available.
type Orchestrator struct {
	cfg      Config
	catalog  *catalog.SchemaCatalog
	selector *CandidateSelector

	normalizer *DialectNormalizer
	injector   *FilterInjector
	validator  *IdentifierValidator
	advisor    *PerformanceAdvisor

	// regenerator, when set, is invoked for fresh candidates after a
	// fatal validation result in single-candidate mode.
	regenerator llm.Generator

	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewOrchestrator wires the stages over a shared schema catalog. The
// catalog may be nil; Enhance then refuses to run with
// apperrors.ErrCatalogUnavailable.
func NewOrchestrator(cat *catalog.SchemaCatalog, cfg Config, selector *CandidateSelector, regenerator llm.Generator, logger *zap.Logger) *Orchestrator {
	locator := sqlscan.ScanLocator{}
	return &Orchestrator{
		cfg:         cfg,
		catalog:     cat,
		selector:    selector,
		normalizer:  NewDialectNormalizer(),
		injector:    NewFilterInjector(cat, locator, cfg.FilterDelta),
		validator:   NewIdentifierValidator(cat, cfg.FixDelta, cfg.UnresolvableDelta, cfg.FuzzyMinSubstring),
		advisor:     NewPerformanceAdvisor(locator, cfg.RowCap, cfg.CapDelta),
		regenerator: regenerator,
		auditor:     audit.NewSecurityAuditor(logger),
		logger:      logger.Named("orchestrator"),
	}
}

// Enhance runs the full pipeline over one candidate query. When the
// identifier validator leaves the state fatal and a regenerator is
// configured, up to MaxRegenerations fresh candidates are requested with
// guidance naming the unresolved identifiers; the best-scoring attempt is
// returned either way.
func (o *Orchestrator) Enhance(ctx context.Context, questionText, candidateSQL string, dialect models.Dialect) (*models.PipelineReport, error) {
	if o.catalog == nil {
		return nil, apperrors.ErrCatalogUnavailable
	}
	if !models.IsValidDialect(dialect) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidDialect, dialect)
	}

	normalized := sqlscan.NormalizeCandidate(candidateSQL)
	if normalized.Error != nil {
		return nil, normalized.Error
	}
	if normalized.NormalizedSQL == "" {
		return nil, apperrors.ErrNoCandidate
	}

	signals := question.Extract(questionText)

	best := o.runStages(models.NewQueryState(normalized.NormalizedSQL, questionText, dialect), signals)

	for attempt := 1; best.Fatal && o.regenerator != nil && attempt <= o.cfg.MaxRegenerations; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}

		guidance := o.regenerationGuidance(best)
		o.logger.Info("regenerating candidate",
			zap.Int("attempt", attempt),
			zap.Int("unresolved", best.CountByKind(models.ChangeIdentifierUnresolvable)))

		fresh, err := o.regenerator.GenerateSQL(ctx, questionText, o.catalog.Summary(), guidance)
		if err != nil {
			o.logger.Warn("regeneration call failed", zap.Error(err))
			break
		}
		renorm := sqlscan.NormalizeCandidate(fresh)
		if renorm.Error != nil || renorm.NormalizedSQL == "" {
			continue
		}

		qs := models.NewQueryState(renorm.NormalizedSQL, questionText, dialect)
		qs.Attempt = attempt
		candidate := o.runStages(qs, signals)
		if betterAttempt(candidate, best) {
			best = candidate
		}
		if !candidate.Fatal {
			best = candidate
			break
		}
	}

	report := o.buildReport(best, signals)
	return report, nil
}

// EnhanceParallel generates candidates from every configured generator
// concurrently, selects the best one, and runs the pipeline over the
// winner. Losing candidates appear in the report but are not processed.
func (o *Orchestrator) EnhanceParallel(ctx context.Context, questionText string, generators []llm.Generator, dialect models.Dialect) (*models.PipelineReport, error) {
	if o.catalog == nil {
		return nil, apperrors.ErrCatalogUnavailable
	}
	if o.selector == nil {
		return nil, fmt.Errorf("no candidate selector configured")
	}

	winner, candidates, err := o.selector.SelectBest(ctx, questionText, o.catalog.Summary(), "", generators)
	if err != nil {
		return nil, err
	}

	report, err := o.Enhance(ctx, questionText, winner, dialect)
	if err != nil {
		return nil, err
	}
	report.Candidates = candidates
	return report, nil
}

// runStages executes the linear stage sequence on one state. Later stages
// still run after a fatal validation so the report captures the complete
// picture.
func (o *Orchestrator) runStages(qs *models.QueryState, signals []models.ContextSignal) *models.QueryState {
	o.normalizer.Normalize(qs)
	o.injector.Inject(qs, signals)
	o.validator.Validate(qs)
	o.advisor.Advise(qs)

	o.logger.Debug("pipeline pass complete",
		zap.Int("attempt", qs.Attempt),
		zap.Int("changes", len(qs.ChangeLog)),
		zap.Bool("fatal", qs.Fatal),
		zap.Float64("confidence", qs.Confidence),
		zap.String("sql", logging.Query(qs.SQLText)))
	return qs
}

// regenerationGuidance turns the unresolvable changes of an attempt into
// corrective prompt text.
func (o *Orchestrator) regenerationGuidance(qs *models.QueryState) string {
	var missing []string
	for _, c := range qs.ChangeLog {
		if c.Kind == models.ChangeIdentifierUnresolvable {
			missing = append(missing, c.Description)
		}
	}

	var available []string
	for _, t := range o.catalog.Tables() {
		for _, col := range o.catalog.ColumnsOf(t) {
			available = append(available, col)
		}
	}
	return prompts.BuildRegenerationGuidance(qs.SQLText, missing, available)
}

// betterAttempt prefers higher confidence, ties broken by fewer
// unresolvable identifiers.
func betterAttempt(candidate, best *models.QueryState) bool {
	if candidate.Confidence != best.Confidence {
		return candidate.Confidence > best.Confidence
	}
	return candidate.CountByKind(models.ChangeIdentifierUnresolvable) < best.CountByKind(models.ChangeIdentifierUnresolvable)
}

// Agent display names for the processing log, a compatibility contract
// with presentation layers.
var stageAgents = []struct {
	stage string
	agent string
}{
	{StageNormalizer, "Dialect Normalizer"},
	{StageFilter, "Context Filter Injector"},
	{StageValidator, "Identifier Validator"},
	{StageAdvisor, "Performance Advisor"},
}

// buildReport derives the externally visible report purely from the final
// state's change log, so confidence and counts are reproducible from the
// log alone.
func (o *Orchestrator) buildReport(qs *models.QueryState, signals []models.ContextSignal) *models.PipelineReport {
	report := &models.PipelineReport{
		RunID:          uuid.New(),
		Success:        !qs.Fatal,
		FinalSQL:       qs.SQLText,
		OriginalSQL:    qs.OriginalSQL,
		Changes:        qs.ChangeLog,
		Fatal:          qs.Fatal,
		ContextSignals: signals,
		Attempts:       qs.Attempt + 1,
		Improvements: models.Improvements{
			SyntaxCorrections: qs.CountByKind(models.ChangeSyntaxFix),
			WhereEnhancements: qs.CountByKind(models.ChangeFilterAdded),
			Optimizations:     qs.CountByKind(models.ChangeOptimization),
			ColumnFixes:       qs.CountByKind(models.ChangeIdentifierFixed),
		},
	}

	var confidenceSum float64
	for _, sa := range stageAgents {
		changes := qs.ChangesForStage(sa.stage)
		log := models.StageLog{
			Agent:      sa.agent,
			Success:    true,
			Confidence: stageConfidence(changes),
		}

		for _, c := range changes {
			switch c.Kind {
			case models.ChangeSyntaxFix:
				log.Enhancements = append(log.Enhancements, c.Description)
			case models.ChangeFilterAdded:
				log.Enhancements = append(log.Enhancements, c.Description)
			case models.ChangeOptimization:
				log.Optimizations = append(log.Optimizations, c.Description)
			case models.ChangeIdentifierFixed:
				log.Substitutions = append(log.Substitutions, c.Description)
			case models.ChangeIdentifierUnresolvable:
				log.MissingColumns = append(log.MissingColumns, c.Description)
				log.Success = false
			}
		}
		log.Message = stageMessage(sa.stage, log)
		confidenceSum += log.Confidence
		report.ProcessingLog = append(report.ProcessingLog, log)
	}

	overall := confidenceSum / float64(len(stageAgents))
	if qs.Fatal {
		overall *= 1 - o.cfg.FatalPenalty
	}
	report.OverallConfidence = clamp01(overall)

	if qs.Fatal {
		var unresolved []string
		for _, c := range qs.ChangeLog {
			if c.Kind == models.ChangeIdentifierUnresolvable {
				unresolved = append(unresolved, c.Description)
			}
		}
		o.auditor.LogUnresolvedIdentifiers(report.RunID, unresolved)
	}

	return report
}

// stageConfidence is derived from the stage's changes alone: a clean pass
// scores 1.0, a pass that modified the query starts from 0.9 and moves by
// the recorded deltas.
func stageConfidence(changes []models.Change) float64 {
	if len(changes) == 0 {
		return 1.0
	}
	conf := 0.9
	for _, c := range changes {
		conf += c.ConfidenceDelta
	}
	return clamp01(conf)
}

func stageMessage(stage string, log models.StageLog) string {
	switch stage {
	case StageNormalizer:
		if len(log.Enhancements) == 0 {
			return "query already conforms to the target dialect"
		}
		return fmt.Sprintf("applied %d dialect corrections", len(log.Enhancements))
	case StageFilter:
		if len(log.Enhancements) == 0 {
			return "no context filters needed"
		}
		return fmt.Sprintf("injected %d context filters", len(log.Enhancements))
	case StageValidator:
		switch {
		case len(log.MissingColumns) > 0:
			return fmt.Sprintf("unresolved identifiers: %s", strings.Join(log.MissingColumns, "; "))
		case len(log.Substitutions) > 0:
			return fmt.Sprintf("substituted %d column references", len(log.Substitutions))
		default:
			return "all identifiers resolved against the schema catalog"
		}
	case StageAdvisor:
		if len(log.Optimizations) == 0 {
			return "no performance findings"
		}
		return fmt.Sprintf("%d performance findings", len(log.Optimizations))
	}
	return ""
}
