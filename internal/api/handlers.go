package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pushrelay/internal/metrics"
	"pushrelay/internal/model"
	"pushrelay/internal/push"
)

// WebhookHandler handles POST /webhook: validate, persist, fan out to feeds.
func (s *Server) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.WebhookRequest
	if err := readJSON(r, &req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing event type", "field 'type' is required", r.URL.Path)
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid payload", err.Error(), r.URL.Path)
		return
	}
	ev, err := s.Store.InsertEvent(r.Context(), req.Type, string(payload))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(req.Type, "store_error").Inc()
		log.Printf("webhook ingest failed type=%s err=%v", req.Type, err)
		writeProblem(w, http.StatusServiceUnavailable, "Event store unavailable", err.Error(), r.URL.Path)
		return
	}
	metrics.WebhookEvents.WithLabelValues(req.Type, "accepted").Inc()
	s.Broker.Publish(Event{Type: ev.EventType, Data: map[string]any{
		"id":         ev.ID,
		"payload":    req.Payload,
		"receivedAt": ev.ReceivedAt.Format(time.RFC3339),
	}})
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// SubscribeHandler handles POST /subscribe: idempotent token registration.
func (s *Server) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SubscribeRequest
	if err := readJSON(r, &req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing token", "field 'token' is required", r.URL.Path)
		return
	}
	if s.Registry.Register(req.Token) {
		log.Printf("new push token registered, total subscribers: %d", s.Registry.Count())
	}
	metrics.Subscribers.Set(float64(s.Registry.Count()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Subscribed", "token": req.Token})
}

// UnsubscribeHandler handles POST /unsubscribe: explicit token removal.
func (s *Server) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SubscribeRequest
	if err := readJSON(r, &req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeProblem(w, http.StatusUnprocessableEntity, "Missing token", "field 'token' is required", r.URL.Path)
		return
	}
	removed := s.Registry.Remove(req.Token)
	metrics.Subscribers.Set(float64(s.Registry.Count()))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Unsubscribed", "removed": removed})
}

// SubscribersHandler handles GET /subscribers: current registry size.
func (s *Server) SubscribersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": s.Registry.Count()})
}

// SendNotificationHandler handles POST /send_notification. The response is
// always 200 with a summary body; a transport without credentials is an
// error payload, not an HTTP failure.
func (s *Server) SendNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := s.Dispatch.Dispatch(r.Context())
	if err != nil {
		if errors.Is(err, push.ErrTransportUnavailable) {
			log.Printf("send_notification: transport not ready")
			writeJSON(w, http.StatusOK, map[string]any{
				"error":         "push transport not initialized",
				"success_count": 0,
			})
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Dispatch failed", err.Error(), r.URL.Path)
		return
	}
	if res.Attempted == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       "No subscribers to send notifications to. Enable notifications first.",
			"success_count": 0,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("Sent %d notifications successfully, %d failed", res.Succeeded, res.Failed),
		"success_count": res.Succeeded,
		"failure_count": res.Failed,
	})
}

// EventsHandler handles GET /v1/events: paged history of ingested events.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	items, next, err := s.Store.ListEvents(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List events failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// EventsStreamHandler handles GET /v1/events/stream: SSE feed of ingested
// events, optionally filtered with ?type=.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	topic := r.URL.Query().Get("type")
	if topic == "" {
		topic = TopicAll
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
