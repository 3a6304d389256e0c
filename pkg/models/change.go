// Package models defines the data types threaded through the SQL
// enhancement pipeline.
package models

// ChangeKind classifies a single modification recorded by a pipeline stage.
type ChangeKind string

const (
	ChangeSyntaxFix              ChangeKind = "syntax_fix"
	ChangeFilterAdded            ChangeKind = "filter_added"
	ChangeIdentifierFixed        ChangeKind = "identifier_fixed"
	ChangeIdentifierUnresolvable ChangeKind = "identifier_unresolvable"
	ChangeOptimization           ChangeKind = "optimization"
)

// Change is an immutable record of one modification (or advisory) produced
// by a stage. Stages append Changes to the QueryState change log; nothing
// mutates a Change afterward.
type Change struct {
	Stage           string     `json:"stage"`
	Kind            ChangeKind `json:"kind"`
	Description     string     `json:"description"`
	ConfidenceDelta float64    `json:"confidence_delta"`
}
