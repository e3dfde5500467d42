package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types written by the API layer.
const (
	TestPublished    = "TestPublished"
	TestRejected     = "TestRejected"
	AttemptSubmitted = "AttemptSubmitted"
	AttemptRejected  = "AttemptRejected"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: test or attempt id
	DataJSON  string
	CreatedAt int64
}

// EventRepo is an append-only audit trail of publish/submit decisions,
// including the defect lists that caused rejections.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}
