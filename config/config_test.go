package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.VerificationTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenRetention)
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "gorm", cfg.TokenStore)
	assert.Equal(t, "log", cfg.Notifier)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("TOKEN_RETENTION", "3d")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("TOKEN_STORE", "Redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.TokenRetention)
	assert.Equal(t, 10, cfg.PasswordMinLength)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis", cfg.TokenStore)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("VERIFICATION_TOKEN_TTL", "tomorrow")
	t.Setenv("PASSWORD_MIN_LENGTH", "six")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFICATION_TOKEN_TTL")
	assert.Contains(t, err.Error(), "PASSWORD_MIN_LENGTH")
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Config{
		AppBaseURL:           "not a url",
		VerificationTokenTTL: time.Hour,
		ResetTokenTTL:        time.Hour,
		PasswordMinLength:    6,
		TokenStore:           "memcached",
		Notifier:             "smtp",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET", "APP_BASE_URL", "TOKEN_STORE", "SMTP_HOST"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
}
