package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewise/sqlforge/pkg/apperrors"
)

func buildTestCatalog(t *testing.T) *SchemaCatalog {
	t.Helper()
	c, err := NewBuilder().
		AddTable("PROD_MQT_CONSULTING_PIPELINE",
			"YEAR", "QUARTER", "WEEK", "GEOGRAPHY", "MARKET", "SALES_STAGE",
			"PPV_AMT", "OPPTY_ID", "CUSTOMER_NAME", "SNAPSHOT_LEVEL").
		AddTable("PROD_MQT_CONSULTING_REVENUE",
			"YEAR", "QUARTER", "GEOGRAPHY", "ACTUAL_REVENUE", "BUDGET_AMT").
		AddSynonym("PIPELINE", "PROD_MQT_CONSULTING_PIPELINE").
		AddSynonym("REVENUE", "PROD_MQT_CONSULTING_REVENUE").
		Build()
	require.NoError(t, err)
	return c
}

func TestResolveTable(t *testing.T) {
	c := buildTestCatalog(t)

	tests := []struct {
		name      string
		input     string
		canonical string
		found     bool
	}{
		{"canonical name", "PROD_MQT_CONSULTING_PIPELINE", "PROD_MQT_CONSULTING_PIPELINE", true},
		{"canonical lower case", "prod_mqt_consulting_pipeline", "PROD_MQT_CONSULTING_PIPELINE", true},
		{"synonym", "PIPELINE", "PROD_MQT_CONSULTING_PIPELINE", true},
		{"synonym mixed case", "Pipeline", "PROD_MQT_CONSULTING_PIPELINE", true},
		{"unknown", "PIPLINE", "", false},
		{"whitespace trimmed", "  REVENUE ", "PROD_MQT_CONSULTING_REVENUE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, ok := c.ResolveTable(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func TestHasColumn(t *testing.T) {
	c := buildTestCatalog(t)

	assert.True(t, c.HasColumn("PROD_MQT_CONSULTING_PIPELINE", "SALES_STAGE"))
	assert.True(t, c.HasColumn("pipeline", "sales_stage"), "resolves synonym and case")
	assert.False(t, c.HasColumn("PROD_MQT_CONSULTING_PIPELINE", "OPPORTUNITY_VALUE"))
	assert.False(t, c.HasColumn("NOPE", "YEAR"))
}

func TestColumnsOfSorted(t *testing.T) {
	c := buildTestCatalog(t)

	cols := c.ColumnsOf("REVENUE")
	assert.Equal(t, []string{"ACTUAL_REVENUE", "BUDGET_AMT", "GEOGRAPHY", "QUARTER", "YEAR"}, cols)
	assert.Nil(t, c.ColumnsOf("UNKNOWN"))
}

func TestSynonymNeverShadowsCanonical(t *testing.T) {
	_, err := NewBuilder().
		AddTable("PIPELINE", "YEAR").
		AddSynonym("PIPELINE", "PIPELINE").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSynonymShadows)
}

// The shadowing rule also holds when the synonym is registered first and
// the colliding table second.
func TestTableNeverShadowsSynonym(t *testing.T) {
	_, err := NewBuilder().
		AddTable("PROD_MQT_CONSULTING_PIPELINE", "YEAR").
		AddSynonym("PIPELINE", "PROD_MQT_CONSULTING_PIPELINE").
		AddTable("PIPELINE", "YEAR").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSynonymShadows)
}

func TestSynonymRequiresCanonical(t *testing.T) {
	_, err := NewBuilder().
		AddSynonym("PIPELINE", "MISSING_TABLE").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
tables:
  - name: sales_pipeline
    columns: [year, quarter, geography]
  - name: revenue
    columns: [year, actual_revenue]
synonyms:
  pipeline: sales_pipeline
`)
	c, err := ParseYAML(data)
	require.NoError(t, err)

	assert.True(t, c.HasTable("SALES_PIPELINE"))
	assert.True(t, c.HasTable("pipeline"))
	assert.Equal(t, []string{"GEOGRAPHY", "QUARTER", "YEAR"}, c.ColumnsOf("sales_pipeline"))

	canonical, ok := c.ResolveSynonym("PIPELINE")
	require.True(t, ok)
	assert.Equal(t, "SALES_PIPELINE", canonical)
}

func TestSummary(t *testing.T) {
	c, err := NewBuilder().
		AddTable("T1", "B", "A").
		Build()
	require.NoError(t, err)
	assert.Equal(t, "T1 (A, B)\n", c.Summary())
}
