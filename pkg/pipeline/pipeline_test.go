package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipewise/sqlforge/pkg/catalog"
)

// testCatalog mirrors the analytical star schema the pipeline targets:
// pre-aggregated pipeline and revenue tables plus short synonyms.
func testCatalog(t *testing.T) *catalog.SchemaCatalog {
	t.Helper()
	cat, err := catalog.NewBuilder().
		AddTable("PROD_MQT_CONSULTING_PIPELINE",
			"OPPTY_ID", "PPV_AMT", "SALES_STAGE", "GEOGRAPHY", "MARKET",
			"PRODUCT_TYPE", "GEN_AI_IND", "YEAR", "QUARTER", "MONTH", "CLIENT_NAME").
		AddTable("PROD_MQT_CONSULTING_REVENUE",
			"REVENUE_AMT", "GEOGRAPHY", "MARKET", "PRODUCT_TYPE",
			"YEAR", "QUARTER", "MONTH", "CLIENT_NAME").
		AddSynonym("PIPELINE", "PROD_MQT_CONSULTING_PIPELINE").
		AddSynonym("REVENUE", "PROD_MQT_CONSULTING_REVENUE").
		Build()
	require.NoError(t, err)
	return cat
}
