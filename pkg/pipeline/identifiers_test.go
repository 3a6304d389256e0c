package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewise/sqlforge/pkg/models"
)

func newTestValidator(t *testing.T) *IdentifierValidator {
	t.Helper()
	return NewIdentifierValidator(testCatalog(t), -0.05, -0.3, 3)
}

func TestValidateCleanQuery(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"SELECT OPPTY_ID, PPV_AMT FROM PROD_MQT_CONSULTING_PIPELINE WHERE GEOGRAPHY = 'AMERICAS'",
		"", models.DialectDB2)

	v.Validate(qs)

	assert.Empty(t, qs.ChangeLog)
	assert.False(t, qs.Fatal)
}

func TestValidateResolvesSynonymTable(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState("SELECT OPPTY_ID FROM PIPELINE", "", models.DialectDB2)

	v.Validate(qs)

	assert.Empty(t, qs.ChangeLog)
	assert.False(t, qs.Fatal)
}

// A misspelled table is fatal. Fuzzy correction across the catalog's table
// names is deliberately not attempted; a wrong guess would silently query
// the wrong data.
func TestValidateUnknownTableIsFatal(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState("SELECT * FROM PIPLINE", "", models.DialectDB2)

	v.Validate(qs)

	require.True(t, qs.Fatal)
	require.Len(t, qs.ChangeLog, 1)
	assert.Equal(t, models.ChangeIdentifierUnresolvable, qs.ChangeLog[0].Kind)
	assert.Contains(t, qs.ChangeLog[0].Description, "PIPLINE")
	// The table name is never rewritten.
	assert.Contains(t, qs.SQLText, "PIPLINE")
}

func TestValidateFuzzyFixesColumn(t *testing.T) {
	v := newTestValidator(t)
	// GEOGRAPH is a truncated spelling; substring containment resolves it
	// uniquely to GEOGRAPHY.
	qs := models.NewQueryState(
		"SELECT OPPTY_ID FROM PIPELINE WHERE GEOGRAPH = 'AMERICAS'",
		"", models.DialectDB2)

	v.Validate(qs)

	assert.False(t, qs.Fatal)
	require.Len(t, qs.ChangeLog, 1)
	assert.Equal(t, models.ChangeIdentifierFixed, qs.ChangeLog[0].Kind)
	assert.Contains(t, qs.SQLText, "GEOGRAPHY = 'AMERICAS'")
}

func TestValidateFoldsPunctuation(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"SELECT OPPTY_ID FROM PIPELINE WHERE ppvamt > 0",
		"", models.DialectDB2)

	v.Validate(qs)

	assert.False(t, qs.Fatal)
	assert.Contains(t, qs.SQLText, "PPV_AMT > 0")
}

func TestValidateSingularPluralColumn(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"SELECT OPPTY_ID FROM PIPELINE WHERE CLIENT_NAMES = 'ACME'",
		"", models.DialectDB2)

	v.Validate(qs)

	assert.False(t, qs.Fatal)
	assert.Contains(t, qs.SQLText, "CLIENT_NAME = 'ACME'")
	assert.Equal(t, 1, qs.CountByKind(models.ChangeIdentifierFixed))
}

func TestValidateUnknownColumnIsFatal(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"SELECT OPPTY_ID FROM PIPELINE WHERE WIN_PROBABILITY > 50",
		"", models.DialectDB2)

	v.Validate(qs)

	require.True(t, qs.Fatal)
	assert.Equal(t, 1, qs.CountByKind(models.ChangeIdentifierUnresolvable))
	// No substitution was attempted.
	assert.Contains(t, qs.SQLText, "WIN_PROBABILITY")
}

func TestValidateAmbiguousColumnIsFatal(t *testing.T) {
	v := newTestValidator(t)
	// MONTH_YEAR contains both MONTH and YEAR so the fuzzy match is
	// ambiguous; nothing is substituted.
	qs := models.NewQueryState(
		"SELECT OPPTY_ID FROM PIPELINE WHERE MONTH_YEAR = 202412",
		"", models.DialectDB2)

	v.Validate(qs)

	require.True(t, qs.Fatal)
	changes := qs.ChangesForStage(StageValidator)
	var found bool
	for _, c := range changes {
		if c.Kind == models.ChangeIdentifierUnresolvable {
			assert.Contains(t, c.Description, "ambiguous")
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateQualifiedColumns(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"SELECT p.PPV_AMT FROM PROD_MQT_CONSULTING_PIPELINE p WHERE p.GEOGRAPHY = 'EMEA'",
		"", models.DialectDB2)

	v.Validate(qs)

	assert.Empty(t, qs.ChangeLog)
}

func TestValidateSkipsColumnsInCTEQueries(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState(
		"WITH base AS (SELECT OPPTY_ID, PPV_AMT FROM PIPELINE) SELECT TOTAL_VALUE FROM base WHERE TOTAL_VALUE > 0",
		"", models.DialectDB2)

	v.Validate(qs)

	// Derived columns cannot be checked against the catalog.
	assert.False(t, qs.Fatal)
	assert.Empty(t, qs.ChangeLog)
}

func TestFatalIsMonotonic(t *testing.T) {
	v := newTestValidator(t)
	qs := models.NewQueryState("SELECT * FROM PIPLINE", "", models.DialectDB2)

	v.Validate(qs)
	require.True(t, qs.Fatal)

	// Later stages may keep recording changes; none can clear the flag.
	qs.Record(models.Change{Stage: StageAdvisor, Kind: models.ChangeOptimization, Description: "advisory"})
	assert.True(t, qs.Fatal)
}
