package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCompleteness_FullySpecified(t *testing.T) {
	c := AnalyzeCompleteness("What is the total pipeline for Americas consulting in Q4 2024?")

	assert.True(t, c.Complete())
	assert.False(t, c.NeedsTime)
	assert.False(t, c.NeedsGeo)
	assert.False(t, c.NeedsMetric)
	assert.Empty(t, c.Suggestions["time"])
	assert.NotEmpty(t, c.Signals)
}

func TestAnalyzeCompleteness_MissingTime(t *testing.T) {
	c := AnalyzeCompleteness("Show revenue for EMEA")

	assert.False(t, c.Complete())
	assert.True(t, c.NeedsTime)
	assert.False(t, c.NeedsGeo)
	assert.False(t, c.NeedsMetric)

	require.NotEmpty(t, c.Suggestions["time"])
	assert.Contains(t, c.Suggestions["time"], "Year to Date")
}

func TestAnalyzeCompleteness_MissingMetric(t *testing.T) {
	c := AnalyzeCompleteness("What happened in Q1 2025?")

	assert.False(t, c.Complete())
	assert.True(t, c.NeedsMetric)
	assert.NotEmpty(t, c.Suggestions["metric"])
}

func TestAnalyzeCompleteness_GeoAndProductOptional(t *testing.T) {
	// Time plus metric is enough; geography and product default to all.
	c := AnalyzeCompleteness("What is the revenue forecast for 2025?")

	assert.True(t, c.Complete())
	assert.True(t, c.NeedsGeo)
	assert.True(t, c.NeedsProduct)
	assert.NotEmpty(t, c.Suggestions["geography"])
	assert.NotEmpty(t, c.Suggestions["product"])
}

func TestAnalyzeCompleteness_Vague(t *testing.T) {
	c := AnalyzeCompleteness("show me the data")

	assert.False(t, c.Complete())
	assert.True(t, c.NeedsTime)
	assert.True(t, c.NeedsGeo)
	assert.True(t, c.NeedsProduct)
	assert.True(t, c.NeedsMetric)
	assert.Len(t, c.Suggestions, 4)
	assert.Empty(t, c.Signals)
}
