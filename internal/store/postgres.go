package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pushrelay/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// MigrateDir applies every .sql file in dir in lexical order (dev helper).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", n, err)
		}
	}
	return nil
}

// InsertEvent writes one event row inside its own transaction. The row is
// either fully committed or not visible at all; no retries.
func (p *Postgres) InsertEvent(ctx context.Context, eventType, payload string) (model.WebhookEvent, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return model.WebhookEvent{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ev := model.WebhookEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO webhook_events (id, event_type, payload, received_at) VALUES ($1,$2,$3,$4)`,
		ev.ID, ev.EventType, ev.Payload, ev.ReceivedAt)
	if err != nil {
		return model.WebhookEvent{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.WebhookEvent{}, err
	}
	return ev, nil
}

func (p *Postgres) ListEvents(ctx context.Context, cursor string, limit int) ([]model.WebhookEvent, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, event_type, payload, received_at FROM webhook_events
			 WHERE received_at < (SELECT received_at FROM webhook_events WHERE id::text=$1)
			 ORDER BY received_at DESC, id DESC LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, event_type, payload, received_at FROM webhook_events
			 ORDER BY received_at DESC, id DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := []model.WebhookEvent{}
	var last string
	for rows.Next() {
		var ev model.WebhookEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Payload, &ev.ReceivedAt); err != nil {
			return nil, "", err
		}
		out = append(out, ev)
		last = ev.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}
