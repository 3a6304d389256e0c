package llm

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")

	selectStartRe = regexp.MustCompile(`(?i)\bSELECT\b`)
	withStartRe   = regexp.MustCompile(`(?im)^[ \t]*WITH\s+(?:RECURSIVE\s+)?[A-Za-z_][A-Za-z0-9_]*\s+AS\s*\(`)
)

// ExtractSQL pulls the SQL statement out of a model response. Models wrap
// queries in markdown fences or prepend prose; this takes the first fenced
// block when present, otherwise the text from the first SELECT keyword or
// line-leading CTE declaration, whichever comes first. WITH only counts
// when it opens a CTE at the start of a line, so prose like "the query
// with your filters" cannot hijack extraction.
func ExtractSQL(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if m := codeFenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := -1
	if loc := selectStartRe.FindStringIndex(content); loc != nil {
		start = loc[0]
	}
	if loc := withStartRe.FindStringIndex(content); loc != nil && (start < 0 || loc[0] < start) {
		start = loc[0]
	}
	if start < 0 {
		return content
	}
	return strings.TrimSpace(content[start:])
}
