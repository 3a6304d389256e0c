// Package prompts builds the LLM prompts used for SQL candidate generation.
package prompts

import (
	"fmt"
	"strings"
)

// GenerationSystemMessage is the system prompt for SQL candidate generation.
const GenerationSystemMessage = `You are an expert SQL developer. You translate business questions into a single SQL query against the schema provided by the user.

Rules:
- Return exactly one SQL statement. No explanation, no markdown prose.
- Use only tables and columns that appear in the schema.
- Prefer explicit column lists over SELECT *.
- Do not invent identifiers. If a concept has no matching column, pick the closest column in the schema.`

// BuildGenerationPrompt creates the user prompt for SQL candidate generation.
// guidance carries feedback from a failed prior attempt and may be empty.
func BuildGenerationPrompt(question, schemaContext, guidance string) string {
	var prompt strings.Builder

	prompt.WriteString("# Database Schema\n\n")
	prompt.WriteString(schemaContext)
	prompt.WriteString("\n\n# Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n")

	if guidance != "" {
		prompt.WriteString("\n# Corrections From Previous Attempt\n\n")
		prompt.WriteString(guidance)
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nReturn the SQL query only.\n")

	return prompt.String()
}

// BuildRegenerationGuidance summarizes why the previous candidate was
// rejected so the next attempt can avoid the same identifiers. Column
// lists are capped to keep the prompt bounded.
func BuildRegenerationGuidance(previousSQL string, missingIdentifiers []string, availableColumns []string) string {
	var guidance strings.Builder

	guidance.WriteString("The previous SQL query referenced identifiers that do not exist in the schema.\n\n")
	guidance.WriteString("PREVIOUS QUERY:\n")
	guidance.WriteString(previousSQL)
	guidance.WriteString("\n\nMISSING IDENTIFIERS:\n")
	guidance.WriteString(strings.Join(missingIdentifiers, ", "))

	guidance.WriteString("\n\nAVAILABLE COLUMNS:\n")
	const maxListed = 20
	if len(availableColumns) > maxListed {
		guidance.WriteString(strings.Join(availableColumns[:maxListed], ", "))
		guidance.WriteString(fmt.Sprintf(", ... (%d more)", len(availableColumns)-maxListed))
	} else {
		guidance.WriteString(strings.Join(availableColumns, ", "))
	}

	guidance.WriteString("\n\nRegenerate the query using only the available columns.")

	return guidance.String()
}
