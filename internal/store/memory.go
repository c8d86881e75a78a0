package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pushrelay/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu     sync.Mutex
	events []model.WebhookEvent // newest last
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) InsertEvent(ctx context.Context, eventType, payload string) (model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := model.WebhookEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *Memory) ListEvents(ctx context.Context, cursor string, limit int) ([]model.WebhookEvent, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	// newest first; an unknown cursor yields an empty page, same as the
	// Postgres subquery
	start := len(m.events) - 1
	if cursor != "" {
		start = -1
		for i := len(m.events) - 1; i >= 0; i-- {
			if m.events[i].ID == cursor {
				start = i - 1
				break
			}
		}
	}
	out := []model.WebhookEvent{}
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}
