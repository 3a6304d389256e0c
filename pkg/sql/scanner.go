package sql

import (
	"regexp"
	"strings"
)

// TableRef is a table reference found after FROM or JOIN.
type TableRef struct {
	Name  string // as written in the query
	Alias string // empty if unaliased
}

// ColumnRef is a column reference recognized by position relative to SQL
// keywords. Qualifier is the table name or alias it was written with, empty
// for unqualified references.
type ColumnRef struct {
	Qualifier string
	Name      string
}

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLitRe    = regexp.MustCompile(`'[^']*'`)
	quotedIdentRe  = regexp.MustCompile(`"[^"]*"`)

	tableRefRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_.]*)(?:\s+(?:AS\s+)?([A-Za-z_][A-Za-z0-9_]*))?`)
	cteRe      = regexp.MustCompile(`(?i)\b(?:WITH|,)\s*([A-Za-z_][A-Za-z0-9_]*)\s+AS\s*\(`)

	qualifiedColRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\b`)
	comparisonRe   = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_]*)\s*(?:=|>=|<=|<>|!=|>|<|\bIN\b|\bLIKE\b|\bBETWEEN\b)`)
	groupByRe      = regexp.MustCompile(`(?i)\bGROUP\s+BY\s+([A-Za-z0-9_,\s.]+?)(?:\s+ORDER\s+BY|\s+HAVING|\s+LIMIT|\s+FETCH|\s*$)`)
)

// reservedWords are excluded when a token in identifier position could be a
// keyword instead of a column.
var reservedWords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "GROUP": {}, "ORDER": {}, "BY": {},
	"HAVING": {}, "JOIN": {}, "INNER": {}, "OUTER": {}, "LEFT": {}, "RIGHT": {},
	"FULL": {}, "CROSS": {}, "ON": {}, "AS": {}, "AND": {}, "OR": {}, "NOT": {},
	"IN": {}, "LIKE": {}, "BETWEEN": {}, "EXISTS": {}, "NULL": {}, "TRUE": {},
	"FALSE": {}, "CASE": {}, "WHEN": {}, "THEN": {}, "ELSE": {}, "END": {},
	"UNION": {}, "EXCEPT": {}, "INTERSECT": {}, "DISTINCT": {}, "ALL": {},
	"LIMIT": {}, "FETCH": {}, "FIRST": {}, "ROWS": {}, "ONLY": {}, "OFFSET": {},
	"WITH": {}, "ASC": {}, "DESC": {}, "IS": {}, "VALUES": {}, "SUM": {},
	"COUNT": {}, "AVG": {}, "MIN": {}, "MAX": {}, "YEAR": {}, "MONTH": {},
	"QUARTER": {}, "DAY": {}, "CURRENT": {}, "DATE": {}, "TIMESTAMP": {},
	"EXTRACT": {}, "CAST": {}, "COALESCE": {}, "ROUND": {}, "DECIMAL": {},
	"SUBSTR": {}, "SUBSTRING": {}, "UPPER": {}, "LOWER": {}, "TRIM": {},
}

// IsReservedWord reports whether the token is treated as a SQL keyword.
func IsReservedWord(token string) bool {
	_, ok := reservedWords[strings.ToUpper(token)]
	return ok
}

// stripNoise removes comments, string literals, and quoted identifiers so
// their contents are never mistaken for identifiers.
func stripNoise(sql string) string {
	out := lineCommentRe.ReplaceAllString(sql, "")
	out = blockCommentRe.ReplaceAllString(out, "")
	out = stringLitRe.ReplaceAllString(out, "''")
	out = quotedIdentRe.ReplaceAllString(out, `""`)
	return out
}

// CTENames returns the upper-cased names of common table expressions
// declared by a leading WITH clause.
func CTENames(sql string) map[string]struct{} {
	names := make(map[string]struct{})
	clean := stripNoise(sql)
	if !HasLeadingWith(clean) {
		return names
	}
	for _, m := range cteRe.FindAllStringSubmatch(clean, -1) {
		names[strings.ToUpper(m[1])] = struct{}{}
	}
	return names
}

// HasLeadingWith reports whether the statement opens with a WITH clause.
func HasLeadingWith(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	return len(trimmed) >= 5 && strings.EqualFold(trimmed[:5], "WITH ")
}

// ExtractTables returns the table references named after FROM and JOIN,
// excluding CTE names and subselects. Order follows appearance; duplicates
// by name are collapsed, keeping the first alias seen.
func ExtractTables(sql string) []TableRef {
	clean := stripNoise(sql)
	ctes := CTENames(clean)

	var refs []TableRef
	seen := make(map[string]struct{})
	for _, m := range tableRefRe.FindAllStringSubmatch(clean, -1) {
		name := m[1]
		upper := strings.ToUpper(name)
		if _, isCTE := ctes[upper]; isCTE {
			continue
		}
		if IsReservedWord(name) {
			continue
		}
		if _, dup := seen[upper]; dup {
			continue
		}
		seen[upper] = struct{}{}

		alias := m[2]
		if IsReservedWord(alias) {
			alias = ""
		}
		refs = append(refs, TableRef{Name: name, Alias: alias})
	}
	return refs
}

// ExtractColumnRefs returns the column references recognized in the query:
// qualified table.column / alias.column tokens anywhere, comparison
// left-hand sides, and GROUP BY items. Tokens that are reserved words or
// numeric are excluded. Results are de-duplicated preserving first
// appearance.
func ExtractColumnRefs(sql string) []ColumnRef {
	clean := stripNoise(sql)

	var refs []ColumnRef
	seen := make(map[string]struct{})
	add := func(qualifier, name string) {
		if name == "" || IsReservedWord(name) || isNumeric(name) {
			return
		}
		key := strings.ToUpper(qualifier) + "." + strings.ToUpper(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		refs = append(refs, ColumnRef{Qualifier: qualifier, Name: name})
	}

	for _, m := range qualifiedColRe.FindAllStringSubmatch(clean, -1) {
		if IsReservedWord(m[1]) {
			continue
		}
		add(m[1], m[2])
	}

	for _, m := range comparisonRe.FindAllStringSubmatch(clean, -1) {
		add("", m[1])
	}

	if gm := groupByRe.FindStringSubmatch(clean); gm != nil {
		for _, item := range strings.Split(gm[1], ",") {
			item = strings.TrimSpace(item)
			if dot := strings.LastIndex(item, "."); dot >= 0 {
				add(item[:dot], item[dot+1:])
				continue
			}
			add("", item)
		}
	}

	return refs
}

// SelectShape returns the normalized SELECT and FROM clause text, used to
// compare whether two candidate queries agree structurally. Returns empty
// strings for non-SELECT statements.
func SelectShape(sql string) (selectClause, fromClause string) {
	clean := strings.Join(strings.Fields(strings.ToUpper(stripNoise(sql))), " ")

	selIdx := strings.Index(clean, "SELECT ")
	fromIdx := strings.Index(clean, " FROM ")
	if selIdx < 0 || fromIdx < 0 || fromIdx < selIdx {
		return "", ""
	}
	selectClause = strings.TrimSpace(clean[selIdx+len("SELECT") : fromIdx])

	rest := clean[fromIdx+len(" FROM "):]
	for _, ender := range []string{" WHERE ", " GROUP BY ", " ORDER BY ", " HAVING ", " LIMIT ", " FETCH "} {
		if idx := strings.Index(rest, ender); idx >= 0 {
			rest = rest[:idx]
		}
	}
	return selectClause, strings.TrimSpace(rest)
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
