// Package audit persists workflow audit events.
//
// PostgresRecorder writes one row per upload or export outcome into
// workflow_audit and can purge rows past the retention window. LogRecorder
// is the fallback used when no database is configured.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/logging"
)

// DefaultRecentLimit is the number of entries returned by Recent when no
// limit is given.
const DefaultRecentLimit = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workflow_audit (
	id          UUID PRIMARY KEY,
	session_tag TEXT NOT NULL,
	action      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	files       TEXT[] NOT NULL DEFAULT '{}',
	row_count   INTEGER NOT NULL DEFAULT 0,
	fingerprint TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS workflow_audit_created_at_idx ON workflow_audit (created_at);
`

const insertSQL = `
INSERT INTO workflow_audit
	(id, session_tag, action, outcome, severity, files, row_count, fingerprint, detail, ip_address, user_agent, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const recentSQL = `
SELECT session_tag, action, outcome, severity, files, row_count, fingerprint, detail, ip_address, user_agent, duration_ms, created_at
FROM workflow_audit
ORDER BY created_at DESC
LIMIT $1`

// purgeSQL deletes at most $2 rows older than $1 days per call.
const purgeSQL = `
DELETE FROM workflow_audit
WHERE id IN (
	SELECT id FROM workflow_audit
	WHERE created_at < now() - make_interval(days => $1)
	LIMIT $2
)`

// PostgresRecorder stores audit events in PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder wraps an open pool.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts one event.
func (r *PostgresRecorder) Record(ctx context.Context, ev core.AuditEvent) error {
	files := ev.Files
	if files == nil {
		files = []string{}
	}
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, insertSQL,
		uuid.New(),
		ev.SessionTag,
		string(ev.Action),
		string(ev.Outcome),
		string(ev.Severity),
		files,
		ev.Rows,
		ev.Fingerprint,
		ev.Detail,
		ev.IPAddress,
		ev.UserAgent,
		ev.Duration.Milliseconds(),
		created,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the newest events first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]core.AuditEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.pool.Query(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.AuditEvent, error) {
		var (
			ev                        core.AuditEvent
			action, outcome, severity string
			durationMS                int64
		)
		err := row.Scan(&ev.SessionTag, &action, &outcome, &severity, &ev.Files, &ev.Rows,
			&ev.Fingerprint, &ev.Detail, &ev.IPAddress, &ev.UserAgent, &durationMS, &ev.CreatedAt)
		ev.Action = core.AuditAction(action)
		ev.Outcome = core.AuditOutcome(outcome)
		ev.Severity = core.AuditSeverity(severity)
		ev.Duration = time.Duration(durationMS) * time.Millisecond
		return ev, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

// Purge deletes up to batchSize events older than retentionDays.
func (r *PostgresRecorder) Purge(ctx context.Context, retentionDays, batchSize int) (int64, error) {
	tag, err := r.pool.Exec(ctx, purgeSQL, int32(retentionDays), int32(batchSize))
	if err != nil {
		return 0, fmt.Errorf("purge audit events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LogRecorder writes audit events to the structured log.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder. A nil logger uses the request logger.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record logs one event at info level, failures at warn.
func (r *LogRecorder) Record(ctx context.Context, ev core.AuditEvent) error {
	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	level := slog.LevelInfo
	if ev.Outcome == core.OutcomeFailure {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "audit",
		slog.String("session_tag", ev.SessionTag),
		slog.String("action", string(ev.Action)),
		slog.String("outcome", string(ev.Outcome)),
		slog.String("severity", string(ev.Severity)),
		slog.Any("files", ev.Files),
		slog.Int("rows", ev.Rows),
		slog.String("fingerprint", ev.Fingerprint),
		slog.String("detail", ev.Detail),
		slog.String("ip", ev.IPAddress),
		slog.Int64("duration_ms", ev.Duration.Milliseconds()),
	)
	return nil
}
