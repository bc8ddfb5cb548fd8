package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	HTTPPort         string
	DatabaseURL      string
	RedisAddr        string
	JWTIssuer        string
	JWTSigningKey    string
	QueueBackend     string
	LockBackend      string
	LockTTL          time.Duration
	LockWait         time.Duration
	RateLimitPerMin  int
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string
	SMSSkip          bool
	SMSInterval      time.Duration
	SMSConcurrency   int
	SMSSignature     string
	SMSContactPhone  string
	PublicSMSEnabled bool
	AutoMigrate      bool
	DBMaxConns       int
	// CORSOrigins lists browser origins allowed to call the API. Empty means none.
	CORSOrigins []string
}

// Load reads .env when present, then returns config populated from the environment with defaults.
// Variables already set in the environment win over .env.
func Load() App {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return App{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPPort:         getEnv("HTTP_PORT", "8081"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		JWTIssuer:        getEnv("JWT_ISSUER", ""),
		JWTSigningKey:    getEnv("JWT_SIGNING_KEY", ""),
		QueueBackend:     getEnv("QUEUE_BACKEND", "redis"),
		LockBackend:      getEnv("LOCK_BACKEND", "redis"),
		LockTTL:          durationEnv("LOCK_TTL", 30*time.Second),
		LockWait:         durationEnv("LOCK_WAIT", 5*time.Second),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 120),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		SMSSkip:          boolEnv("SMS_SKIP", false),
		SMSInterval:      durationEnv("SMS_INTERVAL", 100*time.Millisecond),
		SMSConcurrency:   intEnv("SMS_CONCURRENCY", 1),
		SMSSignature:     getEnv("SMS_SIGNATURE", "CSCBM"),
		SMSContactPhone:  getEnv("SMS_CONTACT_PHONE", ""),
		PublicSMSEnabled: boolEnv("PUBLIC_SMS_ENABLED", false),
		AutoMigrate:      boolEnv("AUTO_MIGRATE", false),
		DBMaxConns:       intEnv("DB_MAX_CONNS", 10),
		CORSOrigins:      listEnv("CORS_ORIGINS"),
	}
}

// Validate rejects configurations the API cannot start with.
func (a App) Validate() error {
	var missing []string
	if a.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if a.JWTSigningKey == "" {
		missing = append(missing, "JWT_SIGNING_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %v", missing)
	}
	for _, o := range a.CORSOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("config: CORS_ORIGINS entry %q must start with http:// or https://", o)
		}
	}
	if a.DBMaxConns < 1 {
		return fmt.Errorf("config: DB_MAX_CONNS must be at least 1, got %d", a.DBMaxConns)
	}
	if a.SMSConcurrency < 1 {
		return fmt.Errorf("config: SMS_CONCURRENCY must be at least 1, got %d", a.SMSConcurrency)
	}
	return nil
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

// listEnv splits a comma-separated variable, dropping blanks.
func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
