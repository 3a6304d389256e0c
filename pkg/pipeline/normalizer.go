package pipeline

import (
	"regexp"
	"strings"

	"github.com/pipewise/sqlforge/pkg/models"
)

// rewriteRule is one textual pattern to replacement substitution. Rules are
// applied in slice order; every rule's replacement is written so that no
// earlier rule re-matches it, which makes the whole table idempotent.
type rewriteRule struct {
	re          *regexp.Regexp
	replacement string
	description string
}

// flagRule marks a construct the rule table cannot rewrite safely. It
// records an informational change and leaves the text untouched.
type flagRule struct {
	matches     func(sql string) bool
	description string
}

// DialectNormalizer rewrites source-dialect constructs into the target
// dialect using a fixed rule table per dialect. It never rejects a query;
// unmappable constructs are flagged and left alone.
type DialectNormalizer struct {
	rules map[models.Dialect][]rewriteRule
	flags map[models.Dialect][]flagRule
}

// rewriteTables holds the per-dialect rule tables. Shared with
// rewriteFragment so SQL text synthesized after normalization lands in the
// same dialect as the statement it joins.
var rewriteTables = map[models.Dialect][]rewriteRule{
	models.DialectDB2:      db2Rules,
	models.DialectPostgres: postgresRules,
	models.DialectSQLite:   sqliteRules,
}

// NewDialectNormalizer creates a normalizer with the built-in rule tables.
func NewDialectNormalizer() *DialectNormalizer {
	return &DialectNormalizer{
		rules: rewriteTables,
		flags: map[models.Dialect][]flagRule{
			models.DialectDB2: db2Flags,
		},
	}
}

// rewriteFragment applies the target dialect's rule table to a standalone
// SQL fragment, such as a filter predicate built from a context signal.
func rewriteFragment(d models.Dialect, fragment string) string {
	for _, rule := range rewriteTables[d] {
		fragment = rule.re.ReplaceAllString(fragment, rule.replacement)
	}
	return fragment
}

// Normalize applies the rule table for the target dialect and records one
// syntax_fix change per rule that fired. All changes carry a zero
// confidence delta; normalization corrects form, it does not judge the
// query.
func (n *DialectNormalizer) Normalize(qs *models.QueryState) {
	for _, rule := range n.rules[qs.Dialect] {
		if !rule.re.MatchString(qs.SQLText) {
			continue
		}
		qs.SQLText = rule.re.ReplaceAllString(qs.SQLText, rule.replacement)
		qs.Record(models.Change{
			Stage:       StageNormalizer,
			Kind:        models.ChangeSyntaxFix,
			Description: rule.description,
		})
	}

	for _, flag := range n.flags[qs.Dialect] {
		if !flag.matches(qs.SQLText) {
			continue
		}
		qs.Record(models.Change{
			Stage:       StageNormalizer,
			Kind:        models.ChangeSyntaxFix,
			Description: flag.description,
		})
	}
}

// db2Rules converts SQLite, Postgres, and SQL Server constructs to DB2.
// Order matters: the date('now') rules run before the strftime rules so
// that a nested date('now') argument is already flattened when the
// strftime capture group consumes up to the closing parenthesis.
var db2Rules = []rewriteRule{
	{
		re:          regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`),
		replacement: "FETCH FIRST $1 ROWS ONLY",
		description: "converted LIMIT to FETCH FIRST (DB2 row limiting)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bdatetime\s*\(\s*'now'\s*\)`),
		replacement: "CURRENT TIMESTAMP",
		description: "converted datetime('now') to CURRENT TIMESTAMP",
	},
	{
		re:          regexp.MustCompile(`(?i)\bdate\s*\(\s*'now'\s*\)`),
		replacement: "CURRENT DATE",
		description: "converted date('now') to CURRENT DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bstrftime\s*\(\s*'%Y'\s*,\s*([^)]+?)\s*\)`),
		replacement: "YEAR($1)",
		description: "converted strftime('%Y', ...) to YEAR(...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bstrftime\s*\(\s*'%m'\s*,\s*([^)]+?)\s*\)`),
		replacement: "MONTH($1)",
		description: "converted strftime('%m', ...) to MONTH(...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`),
		replacement: "CURRENT DATE",
		description: "converted GETDATE() to CURRENT DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURDATE\s*\(\s*\)`),
		replacement: "CURRENT DATE",
		description: "converted CURDATE() to CURRENT DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bNOW\s*\(\s*\)`),
		replacement: "CURRENT TIMESTAMP",
		description: "converted NOW() to CURRENT TIMESTAMP",
	},
	{
		re:          regexp.MustCompile(`(?i)\bSUBSTRING\s*\(`),
		replacement: "SUBSTR(",
		description: "converted SUBSTRING to SUBSTR (DB2 function name)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bDATEPART\s*\(\s*(\w+)\s*,\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT($1 FROM $2)",
		description: "converted DATEPART to EXTRACT",
	},
}

var db2Flags = []flagRule{
	{
		matches: func(sql string) bool {
			upper := strings.ToUpper(sql)
			return strings.Contains(upper, " JOIN ") && !strings.Contains(upper, " ON ")
		},
		description: "JOIN clause appears to lack an ON condition (left unmodified)",
	},
	{
		matches: func(sql string) bool {
			upper := strings.ToUpper(sql)
			if !strings.Contains(upper, "FETCH FIRST") {
				return false
			}
			return !regexp.MustCompile(`(?i)\bFETCH\s+FIRST\s+\d+\s+ROWS?\s+ONLY`).MatchString(sql)
		},
		description: "FETCH FIRST clause does not match 'FETCH FIRST n ROWS ONLY' (left unmodified)",
	},
}

// postgresRules converts DB2 and SQLite constructs to Postgres.
var postgresRules = []rewriteRule{
	{
		re:          regexp.MustCompile(`(?i)\bFETCH\s+FIRST\s+(\d+)\s+ROWS?\s+ONLY`),
		replacement: "LIMIT $1",
		description: "converted FETCH FIRST to LIMIT",
	},
	{
		re:          regexp.MustCompile(`(?i)\bdatetime\s*\(\s*'now'\s*\)`),
		replacement: "NOW()",
		description: "converted datetime('now') to NOW()",
	},
	{
		re:          regexp.MustCompile(`(?i)\bdate\s*\(\s*'now'\s*\)`),
		replacement: "CURRENT_DATE",
		description: "converted date('now') to CURRENT_DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bstrftime\s*\(\s*'%Y'\s*,\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT(YEAR FROM $1)",
		description: "converted strftime('%Y', ...) to EXTRACT(YEAR FROM ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bstrftime\s*\(\s*'%m'\s*,\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT(MONTH FROM $1)",
		description: "converted strftime('%m', ...) to EXTRACT(MONTH FROM ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bYEAR\s*\(\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT(YEAR FROM $1)",
		description: "converted YEAR(...) to EXTRACT(YEAR FROM ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bMONTH\s*\(\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT(MONTH FROM $1)",
		description: "converted MONTH(...) to EXTRACT(MONTH FROM ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bQUARTER\s*\(\s*([^)]+?)\s*\)`),
		replacement: "EXTRACT(QUARTER FROM $1)",
		description: "converted QUARTER(...) to EXTRACT(QUARTER FROM ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`),
		replacement: "NOW()",
		description: "converted GETDATE() to NOW()",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURDATE\s*\(\s*\)`),
		replacement: "CURRENT_DATE",
		description: "converted CURDATE() to CURRENT_DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURRENT\s+DATE\b`),
		replacement: "CURRENT_DATE",
		description: "converted CURRENT DATE to CURRENT_DATE",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURRENT\s+TIMESTAMP\b`),
		replacement: "CURRENT_TIMESTAMP",
		description: "converted CURRENT TIMESTAMP to CURRENT_TIMESTAMP",
	},
}

// sqliteRules converts DB2 constructs to SQLite. The YEAR/MONTH/QUARTER
// rules run before the CURRENT DATE rule so the strftime argument they emit
// is rewritten to date('now') by the later rule, not the other way round.
var sqliteRules = []rewriteRule{
	{
		re:          regexp.MustCompile(`(?i)\bFETCH\s+FIRST\s+(\d+)\s+ROWS?\s+ONLY`),
		replacement: "LIMIT $1",
		description: "converted FETCH FIRST to LIMIT",
	},
	{
		re:          regexp.MustCompile(`(?i)\bYEAR\s*\(\s*([^)]+?)\s*\)`),
		replacement: "CAST(strftime('%Y', $1) AS INTEGER)",
		description: "converted YEAR(...) to strftime('%Y', ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bMONTH\s*\(\s*([^)]+?)\s*\)`),
		replacement: "CAST(strftime('%m', $1) AS INTEGER)",
		description: "converted MONTH(...) to strftime('%m', ...)",
	},
	{
		re:          regexp.MustCompile(`(?i)\bQUARTER\s*\(\s*([^)]+?)\s*\)`),
		replacement: "((CAST(strftime('%m', $1) AS INTEGER) + 2) / 3)",
		description: "converted QUARTER(...) to a strftime month expression",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURRENT\s+DATE\b`),
		replacement: "date('now')",
		description: "converted CURRENT DATE to date('now')",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURRENT\s+TIMESTAMP\b`),
		replacement: "datetime('now')",
		description: "converted CURRENT TIMESTAMP to datetime('now')",
	},
	{
		re:          regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`),
		replacement: "date('now')",
		description: "converted GETDATE() to date('now')",
	},
	{
		re:          regexp.MustCompile(`(?i)\bCURDATE\s*\(\s*\)`),
		replacement: "date('now')",
		description: "converted CURDATE() to date('now')",
	},
	{
		re:          regexp.MustCompile(`(?i)\bSUBSTRING\s*\(`),
		replacement: "SUBSTR(",
		description: "converted SUBSTRING to SUBSTR",
	},
}
