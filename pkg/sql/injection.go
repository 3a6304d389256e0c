package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes an injection pattern detected in a candidate
// query's inline string literals.
type InjectionFinding struct {
	Literal     string // the literal that tripped the detector
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// ScreenCandidate runs libinjection over every single-quoted literal a
// generator inlined into the candidate. Generated analytical queries carry
// plain value literals; a literal that fingerprints as SQLi means the
// generator echoed attack text from the question, and the candidate is
// excluded from selection.
//
// Returns nil when all literals are clean.
func ScreenCandidate(candidate string) *InjectionFinding {
	for _, lit := range inlineStringLiterals(candidate) {
		if isSQLi, fingerprint := libinjection.IsSQLi(lit); isSQLi {
			return &InjectionFinding{
				Literal:     lit,
				Fingerprint: string(fingerprint),
			}
		}
	}
	return nil
}

// inlineStringLiterals extracts the contents of single-quoted literals,
// honoring SQL standard doubled-quote escapes.
func inlineStringLiterals(sqlText string) []string {
	var literals []string
	i := 0
	for i < len(sqlText) {
		if sqlText[i] != '\'' {
			i++
			continue
		}
		j := i + 1
		var content []byte
		for j < len(sqlText) {
			if sqlText[j] == '\'' {
				if j+1 < len(sqlText) && sqlText[j+1] == '\'' {
					content = append(content, '\'')
					j += 2
					continue
				}
				break
			}
			content = append(content, sqlText[j])
			j++
		}
		literals = append(literals, string(content))
		i = j + 1
	}
	return literals
}
