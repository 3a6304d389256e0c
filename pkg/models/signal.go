package models

// SignalCategory identifies the kind of business context a signal carries.
type SignalCategory string

const (
	SignalTime          SignalCategory = "time"
	SignalGeography     SignalCategory = "geography"
	SignalProduct       SignalCategory = "product"
	SignalBusinessState SignalCategory = "business_state"
)

// SignalCategoryPriority is the fixed resolution order used when a phrase
// could belong to more than one category, and the order in which injected
// predicates are appended. Lower index wins.
var SignalCategoryPriority = []SignalCategory{
	SignalTime,
	SignalGeography,
	SignalProduct,
	SignalBusinessState,
}

// CategoryRank returns the priority rank for a category (lower is higher
// priority). Unknown categories sort last.
func CategoryRank(c SignalCategory) int {
	for i, cat := range SignalCategoryPriority {
		if cat == c {
			return i
		}
	}
	return len(SignalCategoryPriority)
}

// ContextSignal is a structured hint extracted from the natural-language
// question. Each signal implies exactly one filter predicate on one column.
// Signals are produced once by the extractor and read-only thereafter.
type ContextSignal struct {
	Category      SignalCategory `json:"category"`
	MatchedPhrase string         `json:"matched_phrase"`
	Predicate     string         `json:"predicate"`
	TargetColumn  string         `json:"target_column"`
}
