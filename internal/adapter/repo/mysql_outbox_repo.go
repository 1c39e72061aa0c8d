package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/aq2208/stockroom-api/internal/usecase"
)

const (
	outboxPending = "PENDING"
	outboxSent    = "SENT"
	outboxDead    = "DEAD"
)

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

// Insert joins the caller's tx so the event commits with the change it describes.
func (r *MySQLOutboxRepo) Insert(ctx context.Context, ev usecase.OutboxEvent) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, ?, 0, NOW(3), NOW(3))
`, ev.Channel, ev.Payload, outboxPending)
	return mapErr("insert outbox", err)
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]usecase.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,channel,payload,retry_count
FROM outbox
WHERE status = ? AND next_attempt_at <= NOW(3)
ORDER BY id
LIMIT ?`, outboxPending, limit)
	if err != nil {
		return nil, mapErr("fetch outbox", err)
	}
	defer rows.Close()

	var out []usecase.OutboxMessage
	for rows.Next() {
		var m usecase.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Channel, &m.Payload, &m.RetryCount); err != nil {
			return nil, mapErr("scan outbox", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("fetch outbox", err)
	}
	return out, nil
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = ?, last_error = NULL WHERE id = ?`, outboxSent, id)
	return mapErr("mark outbox sent", err)
}

func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time, dead bool) error {
	status := outboxPending
	if dead {
		status = outboxDead
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox
SET status = ?, retry_count = retry_count + 1, next_attempt_at = ?, last_error = ?
WHERE id = ?`, status, retryAt, reason, id)
	return mapErr("mark outbox failed", err)
}

var (
	_ usecase.OutboxRepo  = (*MySQLOutboxRepo)(nil)
	_ usecase.OutboxStore = (*MySQLOutboxRepo)(nil)
)
