// Package logging provides redaction helpers for log output. Queries,
// connection strings, and generator errors pass through here before
// reaching a zap field.
package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength bounds SQL text in log lines. Enhanced queries
	// can run long once filters are injected.
	MaxQueryLogLength = 200
	// RedactedText replaces any sensitive match.
	RedactedText = "[REDACTED]"
)

var (
	// password=..., pwd=..., pass=... up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens (three dot-separated base64url segments)
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// api_key=..., apikey=..., key=... with long values
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:pass@host credentials embedded in a URL-style connection string
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// ConnString redacts credentials from a catalog connection string before
// it is logged. Handles both key=value and url-embedded forms.
func ConnString(connStr string) string {
	if connStr == "" {
		return ""
	}
	s := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// Query truncates SQL text for logging and strips credential-shaped
// substrings. String literals inside the query are left intact.
func Query(sql string) string {
	if sql == "" {
		return ""
	}
	s := Truncate(sql, MaxQueryLogLength)
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
}

// Error redacts an error message that may carry driver or generator
// credentials. Returns "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	s := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// Truncate shortens s to maxLen with an ellipsis.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
