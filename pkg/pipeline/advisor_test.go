package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipewise/sqlforge/pkg/models"
	sqlscan "github.com/pipewise/sqlforge/pkg/sql"
)

func advise(sqlText string, d models.Dialect) *models.QueryState {
	qs := models.NewQueryState(sqlText, "", d)
	NewPerformanceAdvisor(sqlscan.ScanLocator{}, 1000, 0.02).Advise(qs)
	return qs
}

func TestAdviseAddsRowCapDB2(t *testing.T) {
	qs := advise("SELECT OPPTY_ID FROM PROD_MQT_CONSULTING_PIPELINE", models.DialectDB2)

	assert.Contains(t, qs.SQLText, "FETCH FIRST 1000 ROWS ONLY")
}

func TestAdviseAddsRowCapPostgres(t *testing.T) {
	qs := advise("SELECT id FROM t", models.DialectPostgres)

	assert.Contains(t, qs.SQLText, "LIMIT 1000")
}

func TestAdviseSkipsRowCapWhenBounded(t *testing.T) {
	for _, sqlText := range []string{
		"SELECT id FROM t LIMIT 50",
		"SELECT id FROM t FETCH FIRST 50 ROWS ONLY",
		"SELECT SUM(PPV_AMT) FROM t",
		"SELECT GEOGRAPHY, COUNT(*) FROM t GROUP BY GEOGRAPHY",
	} {
		qs := advise(sqlText, models.DialectPostgres)
		assert.Equal(t, sqlText, qs.SQLText, "input %q must not be capped", sqlText)
	}
}

func TestAdviseWildcardProjection(t *testing.T) {
	qs := advise("SELECT * FROM t LIMIT 10", models.DialectPostgres)

	// Advisory only: the projection is not rewritten.
	assert.Contains(t, qs.SQLText, "SELECT *")
	assert.Equal(t, 1, qs.CountByKind(models.ChangeOptimization))
	assert.Zero(t, qs.ChangeLog[0].ConfidenceDelta)
}

func TestAdviseNonIndexableWhere(t *testing.T) {
	qs := advise("SELECT id FROM t WHERE UPPER(name) LIKE '%ACME%' LIMIT 10", models.DialectPostgres)

	found := false
	for _, c := range qs.ChangesForStage(StageAdvisor) {
		if c.Kind == models.ChangeOptimization && c.Description == "WHERE clause has no indexable-looking predicate" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAdviseIndexableWhereIsQuiet(t *testing.T) {
	qs := advise("SELECT id FROM t WHERE GEOGRAPHY = 'EMEA' LIMIT 10", models.DialectPostgres)

	assert.Empty(t, qs.ChangesForStage(StageAdvisor))
}

func TestAdviseNotesMQTUsage(t *testing.T) {
	qs := advise("SELECT PPV_AMT FROM PROD_MQT_CONSULTING_PIPELINE LIMIT 10", models.DialectDB2)

	found := false
	for _, c := range qs.ChangesForStage(StageAdvisor) {
		if c.Description == "query reads a pre-aggregated MQT table" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAdviseNeverFatal(t *testing.T) {
	qs := advise("SELECT * FROM t WHERE UPPER(x) LIKE '%y%'", models.DialectDB2)

	assert.False(t, qs.Fatal)
	for _, c := range qs.ChangeLog {
		assert.Equal(t, models.ChangeOptimization, c.Kind)
	}
}
