package draft

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrify/internal/platform/requestctx"
)

const (
	ActionSave   = "draft.save"
	ActionReset  = "draft.reset"
	ActionSubmit = "draft.submit"
)

type Event struct {
	ID        int64     `json:"id"`
	Tenant    string    `json:"tenant"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Step      string    `json:"step,omitempty"`
	Version   int64     `json:"version"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventLog appends draft lifecycle rows to draft_events. A nil log or pool
// records nothing.
type EventLog struct {
	DB *pgxpool.Pool
}

func NewEventLog(db *pgxpool.Pool) *EventLog {
	return &EventLog{DB: db}
}

// Record never fails the caller; write errors are logged.
func (l *EventLog) Record(ctx context.Context, owner Owner, action string, step Step, version int64) {
	if l == nil || l.DB == nil {
		return
	}
	_, err := l.DB.Exec(ctx, `
    INSERT INTO draft_events (tenant, user_id, action, step, version, request_id)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, owner.Tenant, owner.UserID, action, string(step), version, requestctx.GetRequestID(ctx))
	if err != nil {
		slog.Warn("draft event write failed", "owner", owner.Key(), "action", action, "err", err)
	}
}

func (l *EventLog) List(ctx context.Context, owner Owner, limit int) ([]Event, error) {
	if l == nil || l.DB == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.DB.Query(ctx, `
    SELECT id, tenant, user_id, action, step, version, request_id, created_at
    FROM draft_events
    WHERE tenant = $1 AND user_id = $2
    ORDER BY created_at DESC, id DESC
    LIMIT $3
  `, owner.Tenant, owner.UserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.Tenant, &evt.UserID, &evt.Action, &evt.Step, &evt.Version, &evt.RequestID, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}
