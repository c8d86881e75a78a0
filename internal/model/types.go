package model

import "time"

// WebhookEvent is one persisted inbound event. Payload holds the serialized
// JSON the caller sent; the relay never interprets it.
type WebhookEvent struct {
	ID         string    `json:"id"`
	EventType  string    `json:"eventType"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// WebhookRequest is the inbound body on POST /webhook.
type WebhookRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// SubscribeRequest is the inbound body on POST /subscribe and /unsubscribe.
type SubscribeRequest struct {
	Token string `json:"token"`
}
