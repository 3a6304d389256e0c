// Package sql provides text-level SQL utilities for the enhancement
// pipeline: candidate normalization, clause location, identifier scanning,
// and injection screening. Everything here operates by scanning with light
// structural awareness, not by parsing a full grammar.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the candidate contains more than one
	// SQL statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// NormalizeResult contains the normalized candidate text and any
// structural validation error.
type NormalizeResult struct {
	NormalizedSQL string
	Error         error
}

// NormalizeCandidate trims a raw candidate, strips a trailing semicolon,
// and rejects multi-statement input. Any semicolon remaining outside string
// literals after normalization indicates a second statement.
func NormalizeCandidate(candidate string) NormalizeResult {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return NormalizeResult{}
	}

	normalized := stripTrailingSemicolon(candidate)
	if hasSemicolonOutsideStrings(normalized) {
		return NormalizeResult{Error: ErrMultipleStatements}
	}
	return NormalizeResult{NormalizedSQL: normalized}
}

// WellFormed reports whether a candidate looks structurally usable:
// balanced parentheses and quotes, and both SELECT and FROM present at
// some level. This is the cheap screen the candidate selector applies
// before any scoring.
func WellFormed(candidate string) bool {
	if NormalizeCandidate(candidate).Error != nil {
		return false
	}

	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(candidate); i++ {
		switch ch := candidate[i]; {
		case inSingle:
			if ch == '\'' {
				inSingle = false
			}
		case inDouble:
			if ch == '"' {
				inDouble = false
			}
		case ch == '\'':
			inSingle = true
		case ch == '"':
			inDouble = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	if depth != 0 || inSingle || inDouble {
		return false
	}

	upper := strings.ToUpper(candidate)
	return strings.Contains(upper, "SELECT") && strings.Contains(upper, "FROM")
}

// hasSemicolonOutsideStrings scans with quote-state tracking. SQL standard
// doubled quotes ('') exit and immediately re-enter the string state, which
// keeps the scan correct without lookahead.
func hasSemicolonOutsideStrings(sqlText string) bool {
	inSingle, inDouble := false, false
	prev := byte(0)

	for i := 0; i < len(sqlText); i++ {
		ch := sqlText[i]
		switch {
		case inSingle:
			if ch == '\'' && prev != '\\' {
				inSingle = false
			}
		case inDouble:
			if ch == '"' && prev != '\\' {
				inDouble = false
			}
		case ch == ';':
			return true
		case ch == '\'':
			inSingle = true
		case ch == '"':
			inDouble = true
		}
		prev = ch
	}
	return false
}

// stripTrailingSemicolon removes one trailing semicolon and surrounding
// whitespace.
func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimRight(strings.TrimSuffix(sqlText, ";"), " \t\n\r")
	}
	return sqlText
}
