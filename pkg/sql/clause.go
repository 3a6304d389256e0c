package sql

import (
	"strings"
)

// ClauseLocator finds clause boundaries in SQL text. The scanning
// implementation tracks quote state and parenthesis depth rather than
// parsing a full grammar; a parser-based locator can replace it without
// changing any stage interface.
type ClauseLocator interface {
	// WhereSpan locates the outermost WHERE clause: keywordStart is the
	// offset of the WHERE keyword, bodyStart the first character of the
	// predicate, end the offset just past the clause. ok is false when the
	// query has no top-level WHERE.
	WhereSpan(sql string) (keywordStart, bodyStart, end int, ok bool)

	// FilterInsertionPoint returns the offset at which a new WHERE clause
	// should be inserted: after the FROM clause and its JOINs, before
	// GROUP BY/ORDER BY/HAVING or any row-limiting clause.
	FilterInsertionPoint(sql string) int

	// HasTopLevel reports whether the keyword occurs at parenthesis depth
	// zero, outside string literals.
	HasTopLevel(sql string, keyword string) bool
}

// ScanLocator is the scanning ClauseLocator used throughout the pipeline.
type ScanLocator struct{}

var _ ClauseLocator = ScanLocator{}

// clauseEnders terminate a WHERE clause at top level.
var clauseEnders = []string{
	"GROUP BY", "ORDER BY", "HAVING", "UNION", "EXCEPT", "INTERSECT",
	"FETCH FIRST", "LIMIT",
}

// WhereSpan implements ClauseLocator.
func (ScanLocator) WhereSpan(sql string) (int, int, int, bool) {
	kwStart := topLevelIndex(sql, "WHERE", 0)
	if kwStart < 0 {
		return 0, 0, 0, false
	}
	bodyStart := kwStart + len("WHERE")

	end := len(sql)
	for _, ender := range clauseEnders {
		if idx := topLevelIndex(sql, ender, bodyStart); idx >= 0 && idx < end {
			end = idx
		}
	}
	return kwStart, bodyStart, end, true
}

// FilterInsertionPoint implements ClauseLocator.
func (ScanLocator) FilterInsertionPoint(sql string) int {
	fromIdx := topLevelIndex(sql, "FROM", 0)
	if fromIdx < 0 {
		return len(sql)
	}

	insert := len(sql)
	for _, kw := range clauseEnders {
		if idx := topLevelIndex(sql, kw, fromIdx); idx >= 0 && idx < insert {
			insert = idx
		}
	}
	return insert
}

// HasTopLevel implements ClauseLocator.
func (ScanLocator) HasTopLevel(sql string, keyword string) bool {
	return topLevelIndex(sql, keyword, 0) >= 0
}

// topLevelIndex finds the first occurrence of keyword at parenthesis depth
// zero outside string literals, starting at offset from. The keyword must
// be bounded by non-identifier characters. Multi-word keywords match across
// arbitrary whitespace. Returns -1 when not found.
func topLevelIndex(sql string, keyword string, from int) int {
	words := strings.Fields(strings.ToUpper(keyword))
	upper := strings.ToUpper(sql)

	depth := 0
	inSingle, inDouble := false, false

	for i := from; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inSingle:
			if ch == '\'' {
				inSingle = false
			}
			continue
		case inDouble:
			if ch == '"' {
				inDouble = false
			}
			continue
		case ch == '\'':
			inSingle = true
			continue
		case ch == '"':
			inDouble = true
			continue
		case ch == '(':
			depth++
			continue
		case ch == ')':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}

		if _, ok := matchWordsAt(upper, i, words); ok {
			// Bounded on the left as well.
			if i > 0 && isIdentChar(sql[i-1]) {
				continue
			}
			return i
		}
	}
	return -1
}

// matchWordsAt matches the word sequence at offset i, each word bounded by
// non-identifier characters, separated by one or more whitespace bytes.
func matchWordsAt(upper string, i int, words []string) (int, bool) {
	pos := i
	for wi, w := range words {
		if wi > 0 {
			// Require at least one whitespace byte between words.
			start := pos
			for pos < len(upper) && (upper[pos] == ' ' || upper[pos] == '\t' || upper[pos] == '\n' || upper[pos] == '\r') {
				pos++
			}
			if pos == start {
				return 0, false
			}
		}
		if !strings.HasPrefix(upper[pos:], w) {
			return 0, false
		}
		pos += len(w)
		if pos < len(upper) && isIdentChar(upper[pos]) {
			return 0, false
		}
	}
	return pos, true
}

func isIdentChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
