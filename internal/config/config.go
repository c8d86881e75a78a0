package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything the relay reads at startup. A YAML file named by
// CONFIG_FILE is loaded first (when present); env vars override it.
type Config struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"databaseUrl"`
	RedisURL     string `yaml:"redisUrl"`
	DashboardURL string `yaml:"dashboardUrl"`
	// PublicURL is where browsers reach this relay; it becomes the
	// click-through target of sent notifications.
	PublicURL string `yaml:"publicUrl"`

	// Ingestion rate limit for POST /webhook. Zero disables limiting.
	RateRPS   float64 `yaml:"rateRps"`
	RateBurst int     `yaml:"rateBurst"`

	Firebase FirebaseConfig `yaml:"firebase"`
}

// FirebaseConfig carries the browser-side web config (injected into served
// pages) and the server-side service account used to mint FCM access tokens.
type FirebaseConfig struct {
	APIKey            string `yaml:"apiKey"`
	AuthDomain        string `yaml:"authDomain"`
	ProjectID         string `yaml:"projectId"`
	StorageBucket     string `yaml:"storageBucket"`
	MessagingSenderID string `yaml:"messagingSenderId"`
	AppID             string `yaml:"appId"`
	MeasurementID     string `yaml:"measurementId"`
	VAPIDKey          string `yaml:"vapidKey"`

	// Either a service-account JSON file, or discrete credential fields.
	CredentialsFile string `yaml:"credentialsFile"`
	ClientEmail     string `yaml:"clientEmail"`
	PrivateKey      string `yaml:"privateKey"`
}

// Load builds the config from the optional YAML file plus env overrides.
// Absent or partial transport credentials are not an error here; they surface
// as a transport-unavailable dispatch outcome instead.
func Load() (Config, error) {
	cfg := Config{Port: "8090", RateBurst: 20}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	setenv(&cfg.Port, "PORT")
	setenv(&cfg.DatabaseURL, "DATABASE_URL")
	setenv(&cfg.RedisURL, "REDIS_URL")
	setenv(&cfg.DashboardURL, "DASHBOARD_URL")
	// Legacy name kept from the original deployment.
	setenv(&cfg.DashboardURL, "STREAMLIT_URL")
	setenv(&cfg.PublicURL, "PUBLIC_URL")
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RateRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateBurst = n
		}
	}

	setenv(&cfg.Firebase.APIKey, "FIREBASE_API_KEY")
	setenv(&cfg.Firebase.AuthDomain, "FIREBASE_AUTH_DOMAIN")
	setenv(&cfg.Firebase.ProjectID, "FIREBASE_PROJECT_ID")
	setenv(&cfg.Firebase.StorageBucket, "FIREBASE_STORAGE_BUCKET")
	setenv(&cfg.Firebase.MessagingSenderID, "FIREBASE_MESSAGING_SENDER_ID")
	setenv(&cfg.Firebase.AppID, "FIREBASE_APP_ID")
	setenv(&cfg.Firebase.MeasurementID, "FIREBASE_MEASUREMENT_ID")
	setenv(&cfg.Firebase.VAPIDKey, "FIREBASE_VAPID_KEY")
	setenv(&cfg.Firebase.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setenv(&cfg.Firebase.ClientEmail, "FIREBASE_ADMIN_CLIENT_EMAIL")
	if v := os.Getenv("FIREBASE_ADMIN_PRIVATE_KEY"); v != "" {
		// .env files carry the key with escaped newlines.
		cfg.Firebase.PrivateKey = strings.ReplaceAll(v, `\n`, "\n")
	}

	return cfg, nil
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
