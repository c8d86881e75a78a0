package api

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed embedded/wrapper.html
var wrapperHTML string

//go:embed embedded/test.html
var testHTML string

//go:embed embedded/firebase-messaging-sw.js
var serviceWorkerJS string

// injectConfig substitutes the browser-side configuration placeholders in a
// served asset. dashboardURL varies per page (settings/history point the
// iframe deeper into the dashboard).
func (s *Server) injectConfig(content, dashboardURL string) string {
	fb := s.Cfg.Firebase
	return strings.NewReplacer(
		"PLACEHOLDER_FIREBASE_API_KEY", fb.APIKey,
		"PLACEHOLDER_FIREBASE_AUTH_DOMAIN", fb.AuthDomain,
		"PLACEHOLDER_FIREBASE_PROJECT_ID", fb.ProjectID,
		"PLACEHOLDER_FIREBASE_STORAGE_BUCKET", fb.StorageBucket,
		"PLACEHOLDER_FIREBASE_MESSAGING_SENDER_ID", fb.MessagingSenderID,
		"PLACEHOLDER_FIREBASE_APP_ID", fb.AppID,
		"PLACEHOLDER_FIREBASE_MEASUREMENT_ID", fb.MeasurementID,
		"PLACEHOLDER_VAPID_KEY", fb.VAPIDKey,
		"PLACEHOLDER_DASHBOARD_URL", dashboardURL,
		"PLACEHOLDER_PUBLIC_URL", clickURL(s.Cfg),
	).Replace(content)
}

// WrapperHandler serves the dashboard wrapper on /, /settings and /history,
// and the push test page on /html_test.
func (s *Server) WrapperHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	dashboard := s.Cfg.DashboardURL
	switch r.URL.Path {
	case "/", "":
	case "/settings", "/history":
		dashboard = strings.TrimSuffix(dashboard, "/") + r.URL.Path
	case "/html_test":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(s.injectConfig(testHTML, dashboard)))
		return
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(s.injectConfig(wrapperHTML, dashboard)))
}

// ServiceWorkerHandler serves the messaging service worker; browsers require
// it at the site root.
func (s *Server) ServiceWorkerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write([]byte(s.injectConfig(serviceWorkerJS, s.Cfg.DashboardURL)))
}
