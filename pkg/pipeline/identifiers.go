package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/pipewise/sqlforge/pkg/catalog"
	"github.com/pipewise/sqlforge/pkg/models"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

// IdentifierValidator checks every table and column reference against the
// schema catalog. Unknown tables are fatal immediately; there is no fuzzy
// correction across table names, a misspelled table must be regenerated.
// Unknown columns get a best-effort fuzzy match against the referenced
// tables' column sets: a unique match is substituted, anything else is
// fatal.
type IdentifierValidator struct {
	catalog *catalog.SchemaCatalog

	fixDelta          float64 // delta per substituted column
	unresolvableDelta float64 // delta per unresolvable identifier
	minSubstring      int     // shortest token eligible for substring matching
}

// NewIdentifierValidator creates an identifier validator.
func NewIdentifierValidator(cat *catalog.SchemaCatalog, fixDelta, unresolvableDelta float64, minSubstring int) *IdentifierValidator {
	return &IdentifierValidator{
		catalog:           cat,
		fixDelta:          fixDelta,
		unresolvableDelta: unresolvableDelta,
		minSubstring:      minSubstring,
	}
}

// Validate resolves table references, then column references. It is the
// only stage that can mark the state fatal, and it never stops early: all
// unresolvable identifiers are recorded so regeneration guidance can name
// every one of them.
func (v *IdentifierValidator) Validate(qs *models.QueryState) {
	tables := sqlscan.ExtractTables(qs.SQLText)

	// alias or table name (upper-cased) -> canonical catalog table
	resolved := make(map[string]string)
	var referencedTables []string
	for _, ref := range tables {
		canonical, ok := v.catalog.ResolveTable(ref.Name)
		if !ok {
			qs.Record(models.Change{
				Stage:           StageValidator,
				Kind:            models.ChangeIdentifierUnresolvable,
				Description:     fmt.Sprintf("table %s not found in schema catalog", strings.ToUpper(ref.Name)),
				ConfidenceDelta: v.unresolvableDelta,
			})
			continue
		}
		resolved[strings.ToUpper(ref.Name)] = canonical
		if ref.Alias != "" {
			resolved[strings.ToUpper(ref.Alias)] = canonical
		}
		referencedTables = append(referencedTables, canonical)
	}

	// Columns inside a CTE-opening query resolve against derived tables
	// the catalog knows nothing about; only table names are checked there.
	if sqlscan.HasLeadingWith(qs.SQLText) || len(referencedTables) == 0 {
		return
	}

	for _, col := range sqlscan.ExtractColumnRefs(qs.SQLText) {
		candidates := referencedTables
		if col.Qualifier != "" {
			canonical, known := resolved[strings.ToUpper(col.Qualifier)]
			if !known {
				// Qualifier is not a table or alias in this query,
				// probably a function result; leave it alone.
				continue
			}
			candidates = []string{canonical}
		}

		if v.columnExists(candidates, col.Name) {
			continue
		}

		matches := v.fuzzyMatches(candidates, col.Name)
		if len(matches) == 1 {
			qs.SQLText = replaceIdentifier(qs.SQLText, col.Name, matches[0])
			qs.Record(models.Change{
				Stage:           StageValidator,
				Kind:            models.ChangeIdentifierFixed,
				Description:     fmt.Sprintf("%s -> %s", strings.ToUpper(col.Name), matches[0]),
				ConfidenceDelta: v.fixDelta,
			})
			continue
		}

		desc := fmt.Sprintf("column %s not found in referenced tables", strings.ToUpper(col.Name))
		if len(matches) > 1 {
			desc = fmt.Sprintf("column %s is ambiguous, candidates: %s",
				strings.ToUpper(col.Name), strings.Join(matches, ", "))
		}
		qs.Record(models.Change{
			Stage:           StageValidator,
			Kind:            models.ChangeIdentifierUnresolvable,
			Description:     desc,
			ConfidenceDelta: v.unresolvableDelta,
		})
	}
}

func (v *IdentifierValidator) columnExists(tables []string, column string) bool {
	for _, t := range tables {
		if v.catalog.HasColumn(t, column) {
			return true
		}
	}
	return false
}

// fuzzyMatches finds catalog columns resembling the unknown token. Three
// comparisons, all against punctuation-stripped upper-case forms: exact
// equality, singular/plural equality, and substring containment for tokens
// longer than minSubstring. Results are sorted and de-duplicated so the
// ambiguity decision is deterministic.
func (v *IdentifierValidator) fuzzyMatches(tables []string, column string) []string {
	token := foldIdentifier(column)
	singular := foldIdentifier(inflection.Singular(column))
	plural := foldIdentifier(inflection.Plural(column))

	set := make(map[string]struct{})
	for _, t := range tables {
		for _, candidate := range v.catalog.ColumnsOf(t) {
			folded := foldIdentifier(candidate)
			switch {
			case folded == token || folded == singular || folded == plural:
				set[candidate] = struct{}{}
			case len(token) > v.minSubstring &&
				(strings.Contains(folded, token) || strings.Contains(token, folded)):
				set[candidate] = struct{}{}
			}
		}
	}

	matches := make([]string, 0, len(set))
	for m := range set {
		matches = append(matches, m)
	}
	sort.Strings(matches)
	return matches
}

var nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]`)

// foldIdentifier upper-cases and strips punctuation so OPPTY_VALUE and
// OpptyValue compare equal.
func foldIdentifier(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToUpper(s), "")
}

// replaceIdentifier substitutes every word-bounded, case-insensitive
// occurrence of old with new.
func replaceIdentifier(sqlText, old, new string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(old) + `\b`)
	return re.ReplaceAllString(sqlText, new)
}
