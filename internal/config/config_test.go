package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("SMS_INTERVAL", "")
	t.Setenv("SMS_CONCURRENCY", "")
	t.Setenv("PUBLIC_SMS_ENABLED", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("DB_MAX_CONNS", "")

	cfg := Load()
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, 100*time.Millisecond, cfg.SMSInterval)
	assert.Equal(t, 1, cfg.SMSConcurrency)
	assert.False(t, cfg.PublicSMSEnabled)
	assert.Equal(t, "https://api.twilio.com", cfg.TwilioBaseURL)
	assert.Error(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rollcall")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("SMS_INTERVAL", "250ms")
	t.Setenv("SMS_CONCURRENCY", "3")
	t.Setenv("SMS_SKIP", "1")
	t.Setenv("LOCK_WAIT", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MIN", "abc")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://app.example.org, ,https://admin.example.org")

	cfg := Load()
	assert.Equal(t, []string{"https://app.example.org", "https://admin.example.org"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 250*time.Millisecond, cfg.SMSInterval)
	assert.Equal(t, 3, cfg.SMSConcurrency)
	assert.True(t, cfg.SMSSkip)
	assert.Equal(t, 5*time.Second, cfg.LockWait)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.True(t, cfg.Production())
}

func TestValidate(t *testing.T) {
	cfg := App{DatabaseURL: "postgres://x", JWTSigningKey: "k", DBMaxConns: 10, SMSConcurrency: 0}
	assert.Error(t, cfg.Validate())

	cfg.SMSConcurrency = 2
	assert.NoError(t, cfg.Validate())

	cfg.CORSOrigins = []string{"app.example.org"}
	assert.ErrorContains(t, cfg.Validate(), "CORS_ORIGINS")
	cfg.CORSOrigins = []string{"https://app.example.org"}
	assert.NoError(t, cfg.Validate())

	cfg.DBMaxConns = 0
	assert.Error(t, cfg.Validate())

	err := App{SMSConcurrency: 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}
