package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string

	JWTSecret    string
	JWTIssuer    string
	JWTAccessTTL time.Duration

	AppBaseURL     string
	AllowedOrigins []string

	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	TokenRetention       time.Duration
	SweepInterval        time.Duration
	PasswordMinLength    int

	IdentityTimeout time.Duration
	NotifierTimeout time.Duration
	ConsumeTimeout  time.Duration
	RoleCacheTTL    time.Duration

	TokenStore    string // "gorm" | "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	Notifier     string // "resend" | "smtp" | "log"
	MailFrom     string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SMTPTLSMode  string
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	p := &parser{}
	cfg := Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTIssuer:    getEnv("JWT_ISSUER", "staffingauth"),
		JWTAccessTTL: p.duration("JWT_ACCESS_TTL", 15*time.Minute),

		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		VerificationTokenTTL: p.duration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:        p.duration("RESET_TOKEN_TTL", 24*time.Hour),
		TokenRetention:       p.duration("TOKEN_RETENTION", 7*24*time.Hour),
		SweepInterval:        p.duration("SWEEP_INTERVAL", time.Hour),
		PasswordMinLength:    p.integer("PASSWORD_MIN_LENGTH", 6),

		IdentityTimeout: p.duration("IDENTITY_TIMEOUT", 5*time.Second),
		NotifierTimeout: p.duration("NOTIFIER_TIMEOUT", 10*time.Second),
		ConsumeTimeout:  p.duration("CONSUME_TIMEOUT", 5*time.Second),
		RoleCacheTTL:    p.duration("ROLE_CACHE_TTL", time.Minute),

		TokenStore:    strings.ToLower(getEnv("TOKEN_STORE", "gorm")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.integer("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_TOKEN_PREFIX", "tok"),

		Notifier:     strings.ToLower(getEnv("NOTIFIER", "log")),
		MailFrom:     os.Getenv("MAIL_FROM"),
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     p.integer("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPass:     os.Getenv("SMTP_PASS"),
		SMTPTLSMode:  strings.ToLower(getEnv("SMTP_TLS", "auto")),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if u, err := url.Parse(c.AppBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("APP_BASE_URL must be an absolute url, got %q", c.AppBaseURL))
	}
	if c.VerificationTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be at least 1"))
	}
	switch c.TokenStore {
	case "gorm", "redis":
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE must be gorm or redis, got %q", c.TokenStore))
	}
	switch c.Notifier {
	case "log":
	case "resend":
		if c.ResendAPIKey == "" || c.MailFrom == "" {
			errs = append(errs, errors.New("RESEND_API_KEY and MAIL_FROM are required for the resend notifier"))
		}
	case "smtp":
		if c.SMTPHost == "" || c.MailFrom == "" {
			errs = append(errs, errors.New("SMTP_HOST and MAIL_FROM are required for the smtp notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER must be resend, smtp or log, got %q", c.Notifier))
	}
	return errors.Join(errs...)
}

func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

type parser struct {
	errs []error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := parseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

// parseDuration accepts Go durations plus a day suffix ("7d").
func parseDuration(raw string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
