package core

import (
	"context"
	"time"
)

// AuditAction represents the type of workflow round trip being audited.
type AuditAction string

const (
	ActionUpload AuditAction = "upload"
	ActionExport AuditAction = "export"
)

// AuditOutcome records whether a round trip succeeded.
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEvent is one completed upload or export round trip.
type AuditEvent struct {
	SessionTag  string        `json:"sessionTag"`
	Action      AuditAction   `json:"action"`
	Outcome     AuditOutcome  `json:"outcome"`
	Severity    AuditSeverity `json:"severity"`
	Files       []string      `json:"files,omitempty"`
	Rows        int           `json:"rows"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	IPAddress   string        `json:"ipAddress,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// AuditRecorder persists audit events. Record failures never fail the
// workflow; the controller only logs them.
type AuditRecorder interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, AuditEvent) error { return nil }

// determineSeverity returns the severity for an action and outcome.
func determineSeverity(action AuditAction, outcome AuditOutcome) AuditSeverity {
	if outcome == OutcomeFailure {
		return SeverityHigh
	}
	switch action {
	case ActionExport:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// newAuditEvent fills the fields shared by every event, including the
// request metadata stored in ctx by the web layer.
func newAuditEvent(ctx context.Context, sessionID string, action AuditAction, err error, started time.Time) AuditEvent {
	outcome := OutcomeSuccess
	detail := ""
	if err != nil {
		outcome = OutcomeFailure
		detail = err.Error()
	}
	return AuditEvent{
		SessionTag: SessionTag(sessionID),
		Action:     action,
		Outcome:    outcome,
		Severity:   determineSeverity(action, outcome),
		Detail:     detail,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		Duration:   time.Since(started),
		CreatedAt:  time.Now().UTC(),
	}
}

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
)

// ContextWithIPAddress adds IP address to context for audit logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds User-Agent to context for audit logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
