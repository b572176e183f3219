// Package audit appends admin writes to the event_log table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"
)

type Event struct {
	Seq       int64           `json:"seq"`
	Actor     string          `json:"actor"`
	Type      string          `json:"type"` // e.g. "test.updated"
	Key       string          `json:"key"`  // e.g. "test:12"
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type Recorder interface {
	Record(ctx context.Context, actor, typ, key string, data any) error
}

type EventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

func (r *EventRepo) Record(ctx context.Context, actor, typ, key string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (actor, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		actor, typ, key, string(b), r.now().Unix())
	return err
}

// List returns events after seq `since`, oldest first.
func (r *EventRepo) List(ctx context.Context, since int64, typ string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT seq, actor, typ, key, data, created_at FROM event_log WHERE seq > $1`
	args := []any{since}
	if typ != "" {
		q += ` AND typ = $2`
		args = append(args, typ)
	}
	args = append(args, limit)
	q += ` ORDER BY seq LIMIT $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var (
			e       Event
			data    string
			created int64
		)
		if err := rows.Scan(&e.Seq, &e.Actor, &e.Type, &e.Key, &data, &created); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
