// Package question extracts typed context signals from natural-language
// business questions: time windows, geography, product lines, and
// business-state qualifiers, each implying one filter predicate.
package question

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pipewise/sqlforge/pkg/models"
)

// matcher is one phrase matcher within a category. The first matcher that
// fires wins the category; a category contributes at most one signal.
type matcher struct {
	match func(q string) (phrase string, ok bool)
	build func(phrase string) models.ContextSignal
}

var (
	quarterYearRe = regexp.MustCompile(`\bq([1-4])\b`)
	yearRe        = regexp.MustCompile(`\b(20\d{2})\b`)
	quarterWordRe = regexp.MustCompile(`\bquarter\s+([1-4])\b`)
)

// regions maps canonical region codes to the keywords that imply them.
// Keyword order within a region is significant: the first keyword found in
// the question is reported as the matched phrase.
var regions = []struct {
	code     string
	keywords []string
}{
	{"AMERICAS", []string{"americas", "america", "latam", "usa", "canada"}},
	{"EMEA", []string{"emea", "europe", "middle east", "africa"}},
	{"APAC", []string{"apac", "asia pacific", "asia", "pacific"}},
	{"JAPAN", []string{"japan"}},
}

// productLines maps product vocabulary to the product-type literal.
var productLines = []struct {
	value    string
	keywords []string
}{
	{"CONSULTING", []string{"consulting"}},
	{"SOFTWARE", []string{"software"}},
	{"CLOUD", []string{"cloud"}},
}

// Extract scans the question for recognizable context categories and
// returns at most one signal per category, ordered by category priority.
// It is a pure function: identical input always yields an identical
// signal set.
func Extract(questionText string) []models.ContextSignal {
	q := strings.ToLower(questionText)

	// Phrases claimed by a higher-priority category may not fire again in
	// a lower one. This resolves overlaps such as a region name that is
	// also a product codename.
	claimed := make(map[string]struct{})

	var signals []models.ContextSignal
	for _, category := range models.SignalCategoryPriority {
		for _, m := range matchersFor(category) {
			phrase, ok := m.match(q)
			if !ok {
				continue
			}
			if _, taken := claimed[phrase]; taken {
				continue
			}
			claimed[phrase] = struct{}{}
			signals = append(signals, m.build(phrase))
			break
		}
	}
	return signals
}

func matchersFor(category models.SignalCategory) []matcher {
	switch category {
	case models.SignalTime:
		return timeMatchers
	case models.SignalGeography:
		return geographyMatchers
	case models.SignalProduct:
		return productMatchers
	case models.SignalBusinessState:
		return businessStateMatchers
	default:
		return nil
	}
}

var timeMatchers = []matcher{
	{
		// Specific quarter plus year: "Q4 2024", "quarter 2 of 2023".
		match: func(q string) (string, bool) {
			qm := quarterYearRe.FindStringSubmatch(q)
			if qm == nil {
				qm = quarterWordRe.FindStringSubmatch(q)
			}
			ym := yearRe.FindStringSubmatch(q)
			if qm == nil || ym == nil {
				return "", false
			}
			return fmt.Sprintf("q%s %s", qm[1], ym[1]), true
		},
		build: func(phrase string) models.ContextSignal {
			parts := strings.Fields(phrase)
			quarter := strings.TrimPrefix(parts[0], "q")
			year := parts[1]
			return models.ContextSignal{
				Category:      models.SignalTime,
				MatchedPhrase: phrase,
				Predicate:     fmt.Sprintf("YEAR = %s AND QUARTER = %s", year, quarter),
				TargetColumn:  "QUARTER",
			}
		},
	},
	{
		// Year to date / current year.
		match: func(q string) (string, bool) {
			for _, kw := range []string{"ytd", "year to date", "this year", "current year"} {
				if strings.Contains(q, kw) {
					return kw, true
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalTime,
				MatchedPhrase: phrase,
				Predicate:     "YEAR = YEAR(CURRENT DATE)",
				TargetColumn:  "YEAR",
			}
		},
	},
	{
		// Bare year: "pipeline in 2024".
		match: func(q string) (string, bool) {
			m := yearRe.FindStringSubmatch(q)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalTime,
				MatchedPhrase: phrase,
				Predicate:     "YEAR = " + phrase,
				TargetColumn:  "YEAR",
			}
		},
	},
	{
		// Current period: "this quarter", "current quarter".
		match: func(q string) (string, bool) {
			for _, kw := range []string{"this quarter", "current quarter", "current period"} {
				if strings.Contains(q, kw) {
					return kw, true
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalTime,
				MatchedPhrase: phrase,
				Predicate:     "YEAR = YEAR(CURRENT DATE) AND QUARTER = QUARTER(CURRENT DATE)",
				TargetColumn:  "QUARTER",
			}
		},
	},
}

var geographyMatchers = []matcher{
	{
		match: func(q string) (string, bool) {
			for _, r := range regions {
				for _, kw := range r.keywords {
					if containsWord(q, kw) {
						return kw, true
					}
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			code := regionForKeyword(phrase)
			return models.ContextSignal{
				Category:      models.SignalGeography,
				MatchedPhrase: phrase,
				Predicate:     fmt.Sprintf("GEOGRAPHY = '%s'", code),
				TargetColumn:  "GEOGRAPHY",
			}
		},
	},
}

var productMatchers = []matcher{
	{
		match: func(q string) (string, bool) {
			for _, p := range productLines {
				for _, kw := range p.keywords {
					if containsWord(q, kw) {
						return kw, true
					}
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalProduct,
				MatchedPhrase: phrase,
				Predicate:     fmt.Sprintf("PRODUCT_TYPE = '%s'", productForKeyword(phrase)),
				TargetColumn:  "PRODUCT_TYPE",
			}
		},
	},
	{
		// GenAI focus: indicator columns rather than a product type.
		match: func(q string) (string, bool) {
			for _, kw := range []string{"genai", "gen ai", "generative ai"} {
				if strings.Contains(q, kw) {
					return kw, true
				}
			}
			if containsWord(q, "ai") {
				return "ai", true
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalProduct,
				MatchedPhrase: phrase,
				Predicate:     "GEN_AI_IND = 1",
				TargetColumn:  "GEN_AI_IND",
			}
		},
	},
}

var businessStateMatchers = []matcher{
	{
		// Active pipeline excludes closed deals.
		match: func(q string) (string, bool) {
			for _, kw := range []string{"active", "open", "pipeline", "forecast"} {
				if containsWord(q, kw) {
					return kw, true
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalBusinessState,
				MatchedPhrase: phrase,
				Predicate:     "SALES_STAGE NOT IN ('Won', 'Lost')",
				TargetColumn:  "SALES_STAGE",
			}
		},
	},
	{
		// Closed deals only.
		match: func(q string) (string, bool) {
			for _, kw := range []string{"closed", "won", "lost"} {
				if containsWord(q, kw) {
					return kw, true
				}
			}
			return "", false
		},
		build: func(phrase string) models.ContextSignal {
			return models.ContextSignal{
				Category:      models.SignalBusinessState,
				MatchedPhrase: phrase,
				Predicate:     "SALES_STAGE IN ('Won', 'Lost')",
				TargetColumn:  "SALES_STAGE",
			}
		},
	},
}

func regionForKeyword(kw string) string {
	for _, r := range regions {
		for _, k := range r.keywords {
			if k == kw {
				return r.code
			}
		}
	}
	return strings.ToUpper(kw)
}

func productForKeyword(kw string) string {
	for _, p := range productLines {
		for _, k := range p.keywords {
			if k == kw {
				return p.value
			}
		}
	}
	return strings.ToUpper(kw)
}

// containsWord reports whether q contains kw bounded by non-letter
// characters, so "asia" does not fire inside "fantasia".
func containsWord(q, kw string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(q[start-1])
		afterOK := end == len(q) || !isWordChar(q[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
