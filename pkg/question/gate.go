package question

import (
	"strings"

	"github.com/pipewise/sqlforge/pkg/models"
)

// Completeness reports which context categories a question already covers
// and what should be asked for before generation. It is a thin policy over
// the shared extractor: the same signal set drives both the pre-generation
// gate and the post-generation filter injector.
type Completeness struct {
	Signals      []models.ContextSignal
	NeedsTime    bool
	NeedsGeo     bool
	NeedsProduct bool
	NeedsMetric  bool
	Suggestions  map[string][]string
}

// Suggested completions offered per missing category.
var (
	timeSuggestions = []string{
		"Current Quarter", "Q1 2025", "Q2 2025", "Q3 2025", "Q4 2025",
		"Year to Date", "Last Year",
	}
	geoSuggestions = []string{
		"Americas", "EMEA", "APAC", "Japan", "All Regions",
	}
	productSuggestions = []string{
		"Consulting Services", "Software Products", "Cloud Services",
		"AI/GenAI Solutions", "All Products",
	}
	metricSuggestions = []string{
		"Revenue Forecast", "Pipeline Value", "Win Rate", "Deal Count",
		"Budget Coverage",
	}
)

var metricKeywords = []string{
	"revenue", "pipeline", "win rate", "deal", "budget", "forecast",
	"coverage", "ppv", "bookings",
}

// AnalyzeCompleteness extracts the question's context signals and flags
// the categories still missing, with suggested completions for each.
func AnalyzeCompleteness(questionText string) Completeness {
	signals := Extract(questionText)

	has := make(map[models.SignalCategory]bool, len(signals))
	for _, s := range signals {
		has[s.Category] = true
	}

	q := strings.ToLower(questionText)
	hasMetric := false
	for _, kw := range metricKeywords {
		if strings.Contains(q, kw) {
			hasMetric = true
			break
		}
	}

	c := Completeness{
		Signals:      signals,
		NeedsTime:    !has[models.SignalTime],
		NeedsGeo:     !has[models.SignalGeography],
		NeedsProduct: !has[models.SignalProduct],
		NeedsMetric:  !hasMetric,
		Suggestions:  make(map[string][]string),
	}

	if c.NeedsTime {
		c.Suggestions["time"] = timeSuggestions
	}
	if c.NeedsGeo {
		c.Suggestions["geography"] = geoSuggestions
	}
	if c.NeedsProduct {
		c.Suggestions["product"] = productSuggestions
	}
	if c.NeedsMetric {
		c.Suggestions["metric"] = metricSuggestions
	}

	return c
}

// Complete reports whether the question carries enough context to skip the
// interactive gate. Time and metric are required; geography and product
// default to all-regions / all-products when absent.
func (c Completeness) Complete() bool {
	return !c.NeedsTime && !c.NeedsMetric
}
