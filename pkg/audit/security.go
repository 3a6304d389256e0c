// Package audit provides security audit logging for SIEM consumption.
// Events are logged in structured JSON with a dedicated logger namespace
// so downstream systems can filter them without parsing free text.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pipewise/sqlforge/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventInjectionScreened is logged when candidate screening detects
	// SQL injection patterns inside a generated query's literals.
	EventInjectionScreened SecurityEventType = "sql_injection_screened"
	// EventUnresolvedIdentifiers is logged when a run finishes fatal,
	// meaning the query referenced schema objects that do not exist.
	EventUnresolvedIdentifiers SecurityEventType = "unresolved_identifiers"
)

// SecurityEvent is one auditable event in the shape SIEM pipelines ingest.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RunID     uuid.UUID         `json:"run_id,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails carries the specifics of a screened candidate.
type InjectionDetails struct {
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	Literal     string `json:"literal"`
	SQL         string `json:"sql"`
}

// SecurityAuditor logs security events. Safe for concurrent use.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor with the "security_audit" logger
// namespace for SIEM filtering.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionScreened records a candidate rejected by injection screening.
// Logged at ERROR level with critical severity: a generator producing
// injection-shaped literals is worth immediate attention.
func (a *SecurityAuditor) LogInjectionScreened(provider string, details InjectionDetails) {
	if a == nil {
		return
	}
	details.SQL = logging.Query(details.SQL)

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventInjectionScreened,
		Provider:  provider,
		Details:   details,
		Severity:  "critical",
	}
	// Marshaling known types does not fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection pattern screened",
		zap.String("event_json", string(eventJSON)),
		zap.String("provider", provider),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", "critical"),
	)
}

// LogUnresolvedIdentifiers records a run that ended fatal. Logged at WARN
// level; these are usually generation mistakes rather than attacks, but a
// spike is a signal the schema context is stale.
func (a *SecurityAuditor) LogUnresolvedIdentifiers(runID uuid.UUID, identifiers []string) {
	if a == nil {
		return
	}

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventUnresolvedIdentifiers,
		RunID:     runID,
		Details:   map[string]any{"identifiers": identifiers},
		Severity:  "warning",
	}
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Run finished with unresolved identifiers",
		zap.String("event_json", string(eventJSON)),
		zap.String("run_id", runID.String()),
		zap.Strings("identifiers", identifiers),
		zap.String("severity", "warning"),
	)
}
