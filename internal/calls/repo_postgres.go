package calls

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo stores call records in the call_history table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// EnsureSchema creates the call_history table and its indexes if absent.
// Depends on the users table existing (FK targets).
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS call_history (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	caller_id UUID REFERENCES users(id),
	callee_id UUID REFERENCES users(id),
	started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
	ended_at TIMESTAMP WITH TIME ZONE,
	duration_seconds INTEGER,
	status VARCHAR(20) DEFAULT 'initiated',
	end_reason VARCHAR(50)
);
CREATE INDEX IF NOT EXISTS idx_call_history_caller ON call_history(caller_id);
CREATE INDEX IF NOT EXISTS idx_call_history_callee ON call_history(callee_id);
CREATE INDEX IF NOT EXISTS idx_call_history_started ON call_history(started_at DESC);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *PostgresRepo) Create(ctx context.Context, rec CallRecord) (CallRecord, error) {
	const q = `
INSERT INTO call_history (id, caller_id, callee_id, status)
VALUES ($1, $2, $3, 'initiated')
RETURNING id, caller_id, callee_id, status, started_at
`
	var out CallRecord
	err := r.db.QueryRowContext(ctx, q, rec.ID, rec.CallerID, rec.CalleeID).Scan(
		&out.ID,
		&out.CallerID,
		&out.CalleeID,
		&out.Status,
		&out.StartedAt,
	)
	return out, err
}

func (r *PostgresRepo) MarkConnected(ctx context.Context, id string) error {
	const q = `
UPDATE call_history
SET status = 'connected', started_at = NOW()
WHERE id = $1 AND status = 'initiated'
`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *PostgresRepo) EndByID(ctx context.Context, id string, reason EndReason) (CallRecord, error) {
	const q = `
UPDATE call_history
SET ended_at = NOW(),
    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
    status = 'ended',
    end_reason = $2
WHERE id = $1
  AND status IN ('initiated', 'connected')
RETURNING id, caller_id, callee_id, status, end_reason, started_at, ended_at, duration_seconds
`
	return r.scanEnded(r.db.QueryRowContext(ctx, q, id, reason))
}

func (r *PostgresRepo) EndByPeers(ctx context.Context, a, b string, reason EndReason) (CallRecord, error) {
	const q = `
UPDATE call_history
SET ended_at = NOW(),
    duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
    status = 'ended',
    end_reason = $3
WHERE ((caller_id = $1 AND callee_id = $2) OR (caller_id = $2 AND callee_id = $1))
  AND status IN ('initiated', 'connected')
RETURNING id, caller_id, callee_id, status, end_reason, started_at, ended_at, duration_seconds
`
	return r.scanEnded(r.db.QueryRowContext(ctx, q, a, b, reason))
}

func (r *PostgresRepo) HistoryForUser(ctx context.Context, userID string, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ch.id, ch.caller_id, ch.callee_id, ch.status,
       COALESCE(ch.end_reason, ''), ch.started_at, ch.ended_at,
       COALESCE(ch.duration_seconds, 0),
       COALESCE(u1.username, ''), COALESCE(u2.username, '')
FROM call_history ch
LEFT JOIN users u1 ON ch.caller_id = u1.id
LEFT JOIN users u2 ON ch.callee_id = u2.id
WHERE ch.caller_id = $1 OR ch.callee_id = $1
ORDER BY ch.started_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var rec CallRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CallerID,
			&rec.CalleeID,
			&rec.Status,
			&rec.EndReason,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.DurationSeconds,
			&rec.CallerName,
			&rec.CalleeName,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) scanEnded(row *sql.Row) (CallRecord, error) {
	var rec CallRecord
	err := row.Scan(
		&rec.ID,
		&rec.CallerID,
		&rec.CalleeID,
		&rec.Status,
		&rec.EndReason,
		&rec.StartedAt,
		&rec.EndedAt,
		&rec.DurationSeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return CallRecord{}, ErrNotFound
	}
	if err != nil {
		return CallRecord{}, err
	}
	return rec, nil
}
