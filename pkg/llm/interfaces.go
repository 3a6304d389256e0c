// Package llm provides the SQL generation collaborators: provider clients
// that turn a business question plus schema context into a candidate query.
package llm

import (
	"context"
)

// Generator is the interface a generation collaborator presents to the
// pipeline. guidance carries regeneration hints (unresolved identifiers and
// the columns actually available) and is empty on the first attempt.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// GenerateSQL produces a candidate SQL query for the question.
	GenerateSQL(ctx context.Context, question, schemaContext, guidance string) (string, error)

	// Provider returns the provider name ("openai", "anthropic", ...).
	Provider() string

	// Model returns the configured model name.
	Model() string
}

// Compile-time interface checks.
var (
	_ Generator = (*OpenAIGenerator)(nil)
	_ Generator = (*AnthropicGenerator)(nil)
	_ Generator = (*MockGenerator)(nil)
)
