package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pipewise/sqlforge/pkg/models"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

// PerformanceAdvisor inspects the query for anti-patterns. It applies one
// rewrite, the default row cap, and otherwise only annotates. It never
// removes a clause and never marks the state fatal.
type PerformanceAdvisor struct {
	locator  sqlscan.ClauseLocator
	rowCap   int
	capDelta float64
}

// NewPerformanceAdvisor creates a performance advisor.
func NewPerformanceAdvisor(locator sqlscan.ClauseLocator, rowCap int, capDelta float64) *PerformanceAdvisor {
	return &PerformanceAdvisor{locator: locator, rowCap: rowCap, capDelta: capDelta}
}

var aggregateRe = regexp.MustCompile(`(?i)\b(?:SUM|COUNT|AVG|MIN|MAX)\s*\(`)

// indexablePredicateRe recognizes a bare column compared against a value,
// the shape an index can serve. Function-wrapped columns and bare LIKE
// scans do not qualify.
var indexablePredicateRe = regexp.MustCompile(`(?i)\b[A-Za-z_][A-Za-z0-9_]*\s*(?:=|>=|<=|<>|!=|>|<|\bIN\b|\bBETWEEN\b)`)

var wildcardRe = regexp.MustCompile(`(?i)\bSELECT\s+\*`)

// Advise runs all checks independently and records one optimization change
// per finding.
func (a *PerformanceAdvisor) Advise(qs *models.QueryState) {
	a.adviseRowCap(qs)
	a.adviseProjection(qs)
	a.adviseIndexability(qs)
	a.adviseAggregates(qs)
}

// adviseRowCap appends a default row cap when nothing bounds the result
// set: no row-limiting clause and no aggregation that collapses output.
func (a *PerformanceAdvisor) adviseRowCap(qs *models.QueryState) {
	if a.locator.HasTopLevel(qs.SQLText, "LIMIT") || a.locator.HasTopLevel(qs.SQLText, "FETCH FIRST") {
		return
	}
	if a.locator.HasTopLevel(qs.SQLText, "GROUP BY") || aggregateRe.MatchString(qs.SQLText) {
		return
	}

	capClause := fmt.Sprintf(" LIMIT %d", a.rowCap)
	if qs.Dialect == models.DialectDB2 {
		capClause = fmt.Sprintf(" FETCH FIRST %d ROWS ONLY", a.rowCap)
	}
	qs.SQLText = strings.TrimRight(qs.SQLText, " \t\n\r") + capClause
	qs.Record(models.Change{
		Stage:           StageAdvisor,
		Kind:            models.ChangeOptimization,
		Description:     fmt.Sprintf("added row cap of %d to prevent unbounded result sets", a.rowCap),
		ConfidenceDelta: a.capDelta,
	})
}

// adviseProjection flags SELECT *. The correct column list cannot be
// inferred safely, so this is advisory only.
func (a *PerformanceAdvisor) adviseProjection(qs *models.QueryState) {
	if !wildcardRe.MatchString(qs.SQLText) {
		return
	}
	qs.Record(models.Change{
		Stage:       StageAdvisor,
		Kind:        models.ChangeOptimization,
		Description: "SELECT * detected, consider selecting specific columns",
	})
}

// adviseIndexability flags a WHERE clause whose predicates an index cannot
// serve.
func (a *PerformanceAdvisor) adviseIndexability(qs *models.QueryState) {
	_, bodyStart, end, ok := a.locator.WhereSpan(qs.SQLText)
	if !ok {
		return
	}
	if indexablePredicateRe.MatchString(qs.SQLText[bodyStart:end]) {
		return
	}
	qs.Record(models.Change{
		Stage:       StageAdvisor,
		Kind:        models.ChangeOptimization,
		Description: "WHERE clause has no indexable-looking predicate",
	})
}

// adviseAggregates notes pre-aggregated table usage, which is the cheap
// path for the analytical schema this pipeline targets.
func (a *PerformanceAdvisor) adviseAggregates(qs *models.QueryState) {
	for _, ref := range sqlscan.ExtractTables(qs.SQLText) {
		if strings.Contains(strings.ToUpper(ref.Name), "_MQT_") {
			qs.Record(models.Change{
				Stage:       StageAdvisor,
				Kind:        models.ChangeOptimization,
				Description: "query reads a pre-aggregated MQT table",
			})
			return
		}
	}
}
