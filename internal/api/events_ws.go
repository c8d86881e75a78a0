package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// EventsWSHandler handles GET /ws/events: a WebSocket feed of ingested
// events, optionally filtered with ?type=.
func (s *Server) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("type")
	if topic == "" {
		topic = TopicAll
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	session := uuid.New().String()[:8]
	log.Printf("ws feed opened session=%s topic=%s", session, topic)

	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Reader only detects close; the feed is one-directional.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-done:
			log.Printf("ws feed closed session=%s", session)
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			msg := map[string]any{"type": evt.Type, "data": evt.Data}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
