package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewise/sqlforge/pkg/models"
)

func signalByCategory(signals []models.ContextSignal, cat models.SignalCategory) (models.ContextSignal, bool) {
	for _, s := range signals {
		if s.Category == cat {
			return s, true
		}
	}
	return models.ContextSignal{}, false
}

func TestExtract_QuarterAndYear(t *testing.T) {
	signals := Extract("What is Q4 2024 pipeline in Americas?")

	ts, ok := signalByCategory(signals, models.SignalTime)
	require.True(t, ok)
	assert.Equal(t, "YEAR = 2024 AND QUARTER = 4", ts.Predicate)
	assert.Equal(t, "QUARTER", ts.TargetColumn)

	gs, ok := signalByCategory(signals, models.SignalGeography)
	require.True(t, ok)
	assert.Equal(t, "GEOGRAPHY = 'AMERICAS'", gs.Predicate)

	bs, ok := signalByCategory(signals, models.SignalBusinessState)
	require.True(t, ok)
	assert.Equal(t, "SALES_STAGE NOT IN ('Won', 'Lost')", bs.Predicate)
}

func TestExtract_OneSignalPerCategory(t *testing.T) {
	// Both "ytd" and a bare year appear; only the first time matcher that
	// fires may contribute.
	signals := Extract("Show Q2 2023 and ytd consulting revenue for EMEA")

	count := 0
	for _, s := range signals {
		if s.Category == models.SignalTime {
			count++
		}
	}
	assert.Equal(t, 1, count)

	ts, _ := signalByCategory(signals, models.SignalTime)
	assert.Equal(t, "YEAR = 2023 AND QUARTER = 2", ts.Predicate)

	ps, ok := signalByCategory(signals, models.SignalProduct)
	require.True(t, ok)
	assert.Equal(t, "PRODUCT_TYPE = 'CONSULTING'", ps.Predicate)
}

func TestExtract_CategoriesIndependent(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     map[models.SignalCategory]string
	}{
		{
			name:     "geography only",
			question: "deals in japan",
			want: map[models.SignalCategory]string{
				models.SignalGeography: "GEOGRAPHY = 'JAPAN'",
			},
		},
		{
			name:     "ytd only",
			question: "ytd revenue",
			want: map[models.SignalCategory]string{
				models.SignalTime: "YEAR = YEAR(CURRENT DATE)",
			},
		},
		{
			name:     "closed deals",
			question: "how many deals were won last cycle",
			want: map[models.SignalCategory]string{
				models.SignalBusinessState: "SALES_STAGE IN ('Won', 'Lost')",
			},
		},
		{
			name:     "genai indicator",
			question: "genai opportunities",
			want: map[models.SignalCategory]string{
				models.SignalProduct: "GEN_AI_IND = 1",
			},
		},
		{
			name:     "no context",
			question: "show me everything",
			want:     map[models.SignalCategory]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := Extract(tt.question)
			assert.Len(t, signals, len(tt.want))
			for cat, pred := range tt.want {
				s, ok := signalByCategory(signals, cat)
				require.True(t, ok, "expected %s signal", cat)
				assert.Equal(t, pred, s.Predicate)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	question := "What is Q4 2024 active consulting pipeline in Americas?"

	first := Extract(question)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(question))
	}
}

func TestExtract_SignalsOrderedByPriority(t *testing.T) {
	signals := Extract("active consulting pipeline in emea for q1 2025")
	require.Len(t, signals, 4)

	for i := 1; i < len(signals); i++ {
		assert.LessOrEqual(t,
			models.CategoryRank(signals[i-1].Category),
			models.CategoryRank(signals[i].Category))
	}
}

func TestExtract_WordBoundaries(t *testing.T) {
	// "asia" must not fire inside an unrelated word.
	signals := Extract("fantasia related bookings")
	_, ok := signalByCategory(signals, models.SignalGeography)
	assert.False(t, ok)
}

func TestAnalyzeCompleteness(t *testing.T) {
	t.Run("complete question", func(t *testing.T) {
		c := AnalyzeCompleteness("Q4 2024 pipeline value for Americas consulting")
		assert.True(t, c.Complete())
		assert.False(t, c.NeedsTime)
		assert.False(t, c.NeedsMetric)
		assert.Empty(t, c.Suggestions["time"])
	})

	t.Run("missing time", func(t *testing.T) {
		c := AnalyzeCompleteness("pipeline value for Americas")
		assert.False(t, c.Complete())
		assert.True(t, c.NeedsTime)
		assert.NotEmpty(t, c.Suggestions["time"])
	})

	t.Run("missing metric", func(t *testing.T) {
		c := AnalyzeCompleteness("show me Q1 2025 numbers")
		assert.False(t, c.Complete())
		assert.True(t, c.NeedsMetric)
		assert.NotEmpty(t, c.Suggestions["metric"])
	})

	t.Run("geography optional", func(t *testing.T) {
		c := AnalyzeCompleteness("Q1 2025 revenue")
		assert.True(t, c.Complete())
		assert.True(t, c.NeedsGeo)
		assert.NotEmpty(t, c.Suggestions["geography"])
	})
}
