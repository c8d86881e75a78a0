package main

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pushrelay/internal/api"
	"pushrelay/internal/config"
	"pushrelay/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Relay core
	mux.HandleFunc("/webhook", api.RateLimit(cfg.RateRPS, cfg.RateBurst, srv.WebhookHandler))
	mux.HandleFunc("/subscribe", srv.SubscribeHandler)
	mux.HandleFunc("/unsubscribe", srv.UnsubscribeHandler)
	mux.HandleFunc("/subscribers", srv.SubscribersHandler)
	mux.HandleFunc("/send_notification", srv.SendNotificationHandler)

	// Event history and live feeds
	mux.HandleFunc("/v1/events", srv.EventsHandler)
	mux.HandleFunc("/v1/events/stream", srv.EventsStreamHandler)
	mux.HandleFunc("/ws/events", srv.EventsWSHandler)

	// Dashboard wrapper and service worker
	mux.HandleFunc("/", srv.WrapperHandler)
	mux.HandleFunc("/settings", srv.WrapperHandler)
	mux.HandleFunc("/history", srv.WrapperHandler)
	mux.HandleFunc("/html_test", srv.WrapperHandler)
	mux.HandleFunc("/firebase-messaging-sw.js", srv.ServiceWorkerHandler)

	// Operational
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.HandleFunc("/debug", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(api.CORSMiddleware(api.MetricsMiddleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("relay listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
