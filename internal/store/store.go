package store

import (
	"context"

	"pushrelay/internal/model"
)

// Store is the event persistence interface used by the API server. It is
// append-only: events are inserted once and never updated.
type Store interface {
	// InsertEvent persists one webhook event inside a scoped transaction and
	// returns the stored record.
	InsertEvent(ctx context.Context, eventType, payload string) (model.WebhookEvent, error)

	// ListEvents returns persisted events newest first. cursor is the last
	// seen event id from a previous page, empty for the first page.
	ListEvents(ctx context.Context, cursor string, limit int) (items []model.WebhookEvent, nextCursor string, err error)
}
