package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pipewise/sqlforge/pkg/catalog"
	"github.com/pipewise/sqlforge/pkg/models"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

// FilterInjector appends the filter predicates implied by context signals
// to the query's outermost WHERE clause, creating one when absent. Signals
// whose target column exists in no referenced table are skipped silently,
// as are signals already represented in the filter clause.
type FilterInjector struct {
	catalog *catalog.SchemaCatalog
	locator sqlscan.ClauseLocator
	delta   float64 // confidence delta per injected predicate
}

// NewFilterInjector creates a filter injector.
func NewFilterInjector(cat *catalog.SchemaCatalog, locator sqlscan.ClauseLocator, delta float64) *FilterInjector {
	return &FilterInjector{catalog: cat, locator: locator, delta: delta}
}

// Inject appends unrepresented signal predicates in category priority
// order, recording one filter_added change per predicate. Signal predicates
// are written in canonical form and rewritten to the query's target dialect
// before insertion. Queries opening with a CTE are left alone: the outer
// SELECT reads from derived tables whose column sets the catalog cannot
// vouch for.
func (f *FilterInjector) Inject(qs *models.QueryState, signals []models.ContextSignal) {
	if len(signals) == 0 || sqlscan.HasLeadingWith(qs.SQLText) {
		return
	}

	for _, sig := range signals {
		if !f.columnReferenced(qs.SQLText, sig.TargetColumn) {
			continue
		}
		if f.represented(qs.SQLText, sig) {
			continue
		}

		pred := rewriteFragment(qs.Dialect, sig.Predicate)
		qs.SQLText = f.appendPredicate(qs.SQLText, pred)
		qs.Record(models.Change{
			Stage:           StageFilter,
			Kind:            models.ChangeFilterAdded,
			Description:     fmt.Sprintf("added %s filter: %s", sig.Category, pred),
			ConfidenceDelta: f.delta,
		})
	}
}

// columnReferenced reports whether the signal's target column exists in at
// least one table the query actually reads from.
func (f *FilterInjector) columnReferenced(sqlText, column string) bool {
	for _, ref := range sqlscan.ExtractTables(sqlText) {
		canonical, ok := f.catalog.ResolveTable(ref.Name)
		if !ok {
			continue
		}
		if f.catalog.HasColumn(canonical, column) {
			return true
		}
	}
	return false
}

// represented checks whether the existing WHERE clause already constrains
// the signal's target column with a compatible literal. The heuristic is
// textual: the column name must appear word-bounded in the clause body,
// and at least one literal from the signal's predicate must appear too
// (predicates without literals match on the column alone).
func (f *FilterInjector) represented(sqlText string, sig models.ContextSignal) bool {
	_, bodyStart, end, ok := f.locator.WhereSpan(sqlText)
	if !ok {
		return false
	}
	body := sqlText[bodyStart:end]

	if !containsWord(body, sig.TargetColumn) {
		return false
	}

	literals := predicateLiterals(sig.Predicate)
	if len(literals) == 0 {
		return true
	}
	upperBody := strings.ToUpper(body)
	for _, lit := range literals {
		if strings.Contains(upperBody, strings.ToUpper(lit)) {
			return true
		}
	}
	return false
}

// appendPredicate extends the WHERE clause with "AND (pred)", or inserts a
// fresh WHERE clause before GROUP BY/ORDER BY/row-limit clauses. A clause
// body holding a top-level OR is parenthesized first so the appended AND
// constrains the whole disjunction, not just its last arm.
func (f *FilterInjector) appendPredicate(sqlText, predicate string) string {
	if _, bodyStart, end, ok := f.locator.WhereSpan(sqlText); ok {
		body := strings.TrimSpace(sqlText[bodyStart:end])
		if f.locator.HasTopLevel(body, "OR") {
			body = "(" + body + ")"
		}
		rest := sqlText[end:]
		if rest != "" && !strings.HasPrefix(rest, " ") {
			rest = " " + rest
		}
		return sqlText[:bodyStart] + " " + body + " AND (" + predicate + ")" + rest
	}

	insert := f.locator.FilterInsertionPoint(sqlText)
	head := strings.TrimRight(sqlText[:insert], " \t\n\r")
	tail := sqlText[insert:]
	if tail != "" && !strings.HasPrefix(tail, " ") {
		tail = " " + tail
	}
	return head + " WHERE " + predicate + tail
}

var literalRe = regexp.MustCompile(`'[^']*'|\b\d+\b`)

// predicateLiterals extracts the quoted and numeric literals of a
// predicate, quotes stripped.
func predicateLiterals(predicate string) []string {
	var out []string
	for _, m := range literalRe.FindAllString(predicate, -1) {
		out = append(out, strings.Trim(m, "'"))
	}
	return out
}

// containsWord reports a case-insensitive, identifier-bounded occurrence
// of word in s.
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	upper := strings.ToUpper(s)
	target := strings.ToUpper(word)
	for from := 0; ; {
		idx := strings.Index(upper[from:], target)
		if idx < 0 {
			return false
		}
		idx += from
		leftOK := idx == 0 || !isIdentByte(upper[idx-1])
		rightOK := idx+len(target) == len(upper) || !isIdentByte(upper[idx+len(target)])
		if leftOK && rightOK {
			return true
		}
		from = idx + 1
	}
}

func isIdentByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
