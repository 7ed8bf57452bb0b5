package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	MongoURI                     string
	MongoDatabase                string
	SurveyCollection             string
	PingCollection               string
	FailedNotificationCollection string
	Timeout                      time.Duration
	Timezone                     string
	ServerLog                    *log.Logger
	JWTConfigs                   []JWTConfig
	JWTAudience                  string
	GeminiAPIKey                 string
	GeminiModel                  string
	GeminiMaxRetries             int
	GeminiRetryDelay             time.Duration
	NotifyEndpoint               string
	NotifyDestination            string
	NotifyTimeout                time.Duration
	AllowedOrigins               []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	timeout := 10 * time.Second
	if v := os.Getenv("MONGO_CONNECT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			timeout = parsed
		}
	}

	notifyEndpoint := strings.TrimSpace(os.Getenv("NOTIFY_GATEWAY_URL"))

	notifyDestination := strings.TrimSpace(os.Getenv("NOTIFY_GATEWAY_DESTINATION"))
	if notifyDestination == "" {
		notifyDestination = "line"
	}

	notifyTimeout := 3 * time.Second
	if raw := strings.TrimSpace(os.Getenv("NOTIFY_GATEWAY_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			notifyTimeout = parsed
		}
	}

	allowedOrigins := parseList("API_ALLOWED_ORIGINS", []string{"*"})

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "kikitori-auth"),
			Secret: []byte(secret),
		})
	}
	if secret := strings.TrimSpace(os.Getenv("AUTH_LINE_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_LINE_JWT_ISSUER", "auth-line"),
			Secret: []byte(secret),
		})
	}

	if len(jwtConfigs) == 0 {
		log.Fatal("JWT secrets not configured. Set AUTH_JWT_SECRET or AUTH_LINE_JWT_SECRET.")
	}

	jwtAudience := strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE"))
	if jwtAudience == "" {
		jwtAudience = strings.TrimSpace(os.Getenv("AUTH_LINE_JWT_AUDIENCE"))
	}

	geminiMaxRetries := 2
	if raw := strings.TrimSpace(os.Getenv("GEMINI_MAX_RETRIES")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			geminiMaxRetries = parsed
		}
	}

	geminiRetryDelay := 2 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_RETRY_DELAY")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			geminiRetryDelay = parsed
		}
	}

	cfg := Config{
		Addr:                         envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:                     envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:                envOrDefault("MONGO_DB", "kikitori"),
		SurveyCollection:             envOrDefault("SURVEY_COLLECTION", "surveys"),
		PingCollection:               envOrDefault("PING_COLLECTION", "pings"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Timeout:                      timeout,
		Timezone:                     envOrDefault("TIMEZONE", "Asia/Tokyo"),
		ServerLog:                    log.New(os.Stdout, "[kikitori-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:                   jwtConfigs,
		JWTAudience:                  jwtAudience,
		GeminiAPIKey:                 strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:                  envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiMaxRetries:             geminiMaxRetries,
		GeminiRetryDelay:             geminiRetryDelay,
		NotifyEndpoint:               notifyEndpoint,
		NotifyDestination:            notifyDestination,
		NotifyTimeout:                notifyTimeout,
		AllowedOrigins:               allowedOrigins,
	}

	cfg.ServerLog.Printf("loaded config: surveyCollection=%q notifyEndpoint=%q geminiModel=%q", cfg.SurveyCollection, notifyEndpoint, cfg.GeminiModel)

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
