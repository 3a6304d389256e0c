package llm

import "context"

// MockGenerator is a configurable mock for testing generation flows.
// Set the function field to control behavior in tests.
type MockGenerator struct {
	// GenerateSQLFunc is called when GenerateSQL is invoked.
	// If nil, returns "SELECT 1" and nil error.
	GenerateSQLFunc func(ctx context.Context, question, schemaContext, guidance string) (string, error)

	// ProviderName is returned by Provider. Defaults to "mock".
	ProviderName string

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification
	GenerateSQLCalls int
	Guidances        []string // guidance argument of each call, in order
}

// NewMockGenerator creates a new mock with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		ProviderName: "mock",
		ModelName:    "mock-model",
	}
}

// GenerateSQL implements Generator.
func (m *MockGenerator) GenerateSQL(ctx context.Context, question, schemaContext, guidance string) (string, error) {
	m.GenerateSQLCalls++
	m.Guidances = append(m.Guidances, guidance)
	if m.GenerateSQLFunc != nil {
		return m.GenerateSQLFunc(ctx, question, schemaContext, guidance)
	}
	return "SELECT 1", nil
}

// Provider implements Generator.
func (m *MockGenerator) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Model implements Generator.
func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking.
func (m *MockGenerator) Reset() {
	m.GenerateSQLCalls = 0
	m.Guidances = nil
}
