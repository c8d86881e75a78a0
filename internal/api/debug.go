package api

import (
	"encoding/json"
	"net/http"
	"time"

	"pushrelay/internal/buildinfo"
)

// DebugJSON reports build info and a redacted snapshot of effective config.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             s.Cfg.Port,
			"DASHBOARD_URL":    s.Cfg.DashboardURL,
			"PUBLIC_URL":       s.Cfg.PublicURL,
			"RATE_RPS":         s.Cfg.RateRPS,
			"RATE_BURST":       s.Cfg.RateBurst,
			"HAS_DATABASE_URL": s.Cfg.DatabaseURL != "",
			"HAS_REDIS_URL":    s.Cfg.RedisURL != "",
			"TRANSPORT_READY":  s.Dispatch.Client != nil && s.Dispatch.Client.Ready(),
			"FIREBASE_PROJECT": s.Cfg.Firebase.ProjectID,
			"SUBSCRIBER_COUNT": s.Registry.Count(),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
