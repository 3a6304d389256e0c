package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/apperrors"
	"github.com/pipewise/sqlforge/pkg/audit"
	"github.com/pipewise/sqlforge/pkg/catalog"
	"github.com/pipewise/sqlforge/pkg/llm"
	"github.com/pipewise/sqlforge/pkg/models"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

// SelectorWeights are the scoring weights for candidate selection. They
// are heuristic and carried as configuration rather than constants.
type SelectorWeights struct {
	Structure   float64 `yaml:"structure" env:"SELECTOR_WEIGHT_STRUCTURE" env-default:"0.4"`
	Identifiers float64 `yaml:"identifiers" env:"SELECTOR_WEIGHT_IDENTIFIERS" env-default:"0.4"`
	Keywords    float64 `yaml:"keywords" env:"SELECTOR_WEIGHT_KEYWORDS" env-default:"0.2"`
}

// DefaultSelectorWeights returns the default scoring weights.
func DefaultSelectorWeights() SelectorWeights {
	return SelectorWeights{Structure: 0.4, Identifiers: 0.4, Keywords: 0.2}
}

// CandidateSelector fans a question out to several generators, scores the
// returned candidates, and picks a winner. Malformed or injection-flagged
// candidates are excluded before scoring; a generator error or timeout
// just means that candidate is absent.
type CandidateSelector struct {
	catalog *catalog.SchemaCatalog
	pool    *llm.WorkerPool
	weights SelectorWeights
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewCandidateSelector creates a candidate selector.
func NewCandidateSelector(cat *catalog.SchemaCatalog, pool *llm.WorkerPool, weights SelectorWeights, logger *zap.Logger) *CandidateSelector {
	return &CandidateSelector{
		catalog: cat,
		pool:    pool,
		weights: weights,
		auditor: audit.NewSecurityAuditor(logger),
		logger:  logger.Named("candidate-selector"),
	}
}

type generation struct {
	provider string
	model    string
	sql      string
}

// SelectBest generates candidates concurrently and returns the winning SQL
// together with the per-candidate results for the report. The decision is
// made only after every generator has returned or timed out. Returns
// apperrors.ErrNoCandidate when no viable candidate survives screening.
func (s *CandidateSelector) SelectBest(ctx context.Context, question, schemaContext, guidance string, generators []llm.Generator) (string, []models.CandidateResult, error) {
	if len(generators) == 0 {
		return "", nil, apperrors.ErrNoCandidate
	}

	items := make([]llm.WorkItem[generation], len(generators))
	for i, gen := range generators {
		gen := gen
		items[i] = llm.WorkItem[generation]{
			ID: fmt.Sprintf("%s/%s", gen.Provider(), gen.Model()),
			Execute: func(ctx context.Context) (generation, error) {
				sqlText, err := gen.GenerateSQL(ctx, question, schemaContext, guidance)
				return generation{provider: gen.Provider(), model: gen.Model(), sql: sqlText}, err
			},
		}
	}

	raw := llm.Process(ctx, s.pool, items)

	results := make([]models.CandidateResult, 0, len(raw))
	for _, r := range raw {
		cr := models.CandidateResult{
			Provider:       r.Result.provider,
			Model:          r.Result.model,
			GenerationSecs: r.Elapsed.Seconds(),
		}
		if r.Err != nil {
			// Provider identity lives on the item ID when Execute
			// never produced a result value.
			if cr.Provider == "" {
				if slash := strings.IndexByte(r.ID, '/'); slash > 0 {
					cr.Provider, cr.Model = r.ID[:slash], r.ID[slash+1:]
				}
			}
			cr.Error = r.Err.Error()
			results = append(results, cr)
			continue
		}

		normalized := sqlscan.NormalizeCandidate(r.Result.sql)
		switch {
		case normalized.Error != nil:
			cr.Error = normalized.Error.Error()
		case !sqlscan.WellFormed(normalized.NormalizedSQL):
			cr.Error = "candidate is not a well-formed single SELECT statement"
		default:
			if finding := sqlscan.ScreenCandidate(normalized.NormalizedSQL); finding != nil {
				cr.Error = fmt.Sprintf("candidate literal flagged as injection: %s", finding.Literal)
				s.auditor.LogInjectionScreened(cr.Provider, audit.InjectionDetails{
					Fingerprint: finding.Fingerprint,
					Literal:     finding.Literal,
					SQL:         normalized.NormalizedSQL,
				})
				break
			}
			cr.SQL = normalized.NormalizedSQL
			cr.Score = s.score(question, cr.SQL)
		}
		results = append(results, cr)
	}

	winner := -1
	for i, cr := range results {
		if cr.Error != "" || cr.SQL == "" {
			continue
		}
		if winner < 0 {
			winner = i
			continue
		}
		best := results[winner]
		if cr.Score > best.Score || (cr.Score == best.Score && len(cr.SQL) < len(best.SQL)) {
			winner = i
		}
	}
	if winner < 0 {
		s.logger.Warn("no viable candidate", zap.Int("generators", len(generators)))
		return "", results, apperrors.ErrNoCandidate
	}

	results[winner].Winner = true
	winSel, winFrom := sqlscan.SelectShape(results[winner].SQL)
	for i := range results {
		if i == winner || results[i].SQL == "" {
			continue
		}
		sel, from := sqlscan.SelectShape(results[i].SQL)
		results[i].AgreesWithWinner = sel == winSel && from == winFrom
	}

	s.logger.Info("candidate selected",
		zap.String("provider", results[winner].Provider),
		zap.String("model", results[winner].Model),
		zap.Float64("score", results[winner].Score),
		zap.Int("candidates", len(results)))

	return results[winner].SQL, results, nil
}

// score combines structural well-formedness, the fraction of identifiers
// that pre-validate against the catalog, and keyword overlap between the
// question and the query text. Deterministic and free of I/O.
func (s *CandidateSelector) score(question, sqlText string) float64 {
	return s.weights.Structure +
		s.weights.Identifiers*s.identifierFraction(sqlText) +
		s.weights.Keywords*keywordSimilarity(question, sqlText)
}

// identifierFraction is the share of table and column references that
// resolve against the catalog without fuzzy help.
func (s *CandidateSelector) identifierFraction(sqlText string) float64 {
	var total, resolved int

	tables := sqlscan.ExtractTables(sqlText)
	canonical := make([]string, 0, len(tables))
	for _, ref := range tables {
		total++
		if name, ok := s.catalog.ResolveTable(ref.Name); ok {
			resolved++
			canonical = append(canonical, name)
		}
	}

	for _, col := range sqlscan.ExtractColumnRefs(sqlText) {
		total++
		for _, t := range canonical {
			if s.catalog.HasColumn(t, col.Name) {
				resolved++
				break
			}
		}
	}

	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total)
}

// keywordSimilarity is the fraction of significant question words (longer
// than three characters) that appear somewhere in the query text.
func keywordSimilarity(question, sqlText string) float64 {
	upperSQL := strings.ToUpper(sqlText)

	var total, hits int
	for _, word := range strings.Fields(strings.ToUpper(question)) {
		word = strings.Trim(word, "?.,!'\"")
		if len(word) <= 3 {
			continue
		}
		total++
		if strings.Contains(upperSQL, word) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
