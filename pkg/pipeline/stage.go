// Package pipeline implements the SQL enhancement pipeline: dialect
// normalization, context filter injection, identifier validation, and
// performance advising, chained by the orchestrator with a bounded
// regeneration loop.
package pipeline

// Stage names as recorded in the change log and processing log.
const (
	StageNormalizer = "dialect_normalizer"
	StageFilter     = "filter_injector"
	StageValidator  = "identifier_validator"
	StageAdvisor    = "performance_advisor"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
