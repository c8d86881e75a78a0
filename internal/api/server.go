package api

import (
	"log"
	"strings"

	"pushrelay/internal/config"
	"pushrelay/internal/push"
	"pushrelay/internal/registry"
	"pushrelay/internal/store"
)

type Server struct {
	Cfg      config.Config
	Store    store.Store
	Registry *registry.Registry
	Dispatch *push.Dispatcher
	Broker   EventBroker
}

// NewServer wires the relay's collaborators. If DATABASE_URL is unset, events
// go to an in-memory store. Missing push credentials are tolerated here; they
// surface when a dispatch is requested.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if err := sp.MigrateDir("db/migrations"); err != nil {
			log.Printf("migrations skipped: %v", err)
		}
		s = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable, using in-memory: %v", err)
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	client := newPushClient(cfg.Firebase)
	if client.Ready() {
		log.Printf("push transport ready project=%s", cfg.Firebase.ProjectID)
	} else {
		log.Printf("push transport not configured; dispatch will report unavailable")
	}

	reg := registry.New()
	msg := push.DemoMessage(clickURL(cfg))
	return &Server{
		Cfg:      cfg,
		Store:    s,
		Registry: reg,
		Dispatch: push.NewDispatcher(reg, client, msg),
		Broker:   broker,
	}, nil
}

// newPushClient prefers a service-account file, falling back to discrete
// credential fields.
func newPushClient(fb config.FirebaseConfig) *push.FCMClient {
	if fb.CredentialsFile != "" {
		c, err := push.NewFCMClientFromFile(fb.CredentialsFile)
		if err == nil {
			return c
		}
		log.Printf("service account file rejected: %v", err)
	}
	return push.NewFCMClient(fb.ProjectID, fb.ClientEmail, fb.PrivateKey)
}

func clickURL(cfg config.Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	return "http://localhost:" + cfg.Port
}
