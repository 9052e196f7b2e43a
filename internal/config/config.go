package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DBDSN     string
	JWTSecret string

	LogLevel string

	SessionDays int

	RateLimitRPM        int
	AIRateLimitRPM      int
	MaxSubmissionBytes  int64
	AuditRetentionDays  int
	PublicFormCacheTTLS int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Bucket         string
	S3Region         string
	S3PresignMinutes int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Env = strings.TrimSpace(os.Getenv("FF_ENV"))
	if cfg.Env == "" {
		return nil, fmt.Errorf("FF_ENV is required")
	}
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return nil, fmt.Errorf("FF_ENV must be one of: dev, prod (got: %s)", cfg.Env)
	}

	cfg.HTTPAddr = getEnvOrDefault("FF_HTTP_ADDR", ":8080")

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("FF_BASE_URL")), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("FF_BASE_URL is required")
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("FF_DB_DSN"))
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("FF_DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("FF_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("FF_JWT_SECRET is required")
	}
	if cfg.Env == "prod" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("FF_JWT_SECRET must be at least 32 characters (currently %d)", len(cfg.JWTSecret))
	}

	cfg.LogLevel = getEnvOrDefault("FF_LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("FF_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", cfg.LogLevel)
	}

	var err error
	cfg.SessionDays, err = getEnvIntOrDefault("FF_SESSION_DAYS", 7)
	if err != nil {
		return nil, err
	}

	cfg.RateLimitRPM, err = getEnvIntOrDefault("FF_RATE_LIMIT_RPM", 120)
	if err != nil {
		return nil, err
	}

	cfg.AIRateLimitRPM, err = getEnvIntOrDefault("FF_AI_RATE_LIMIT_RPM", 20)
	if err != nil {
		return nil, err
	}

	cfg.MaxSubmissionBytes, err = getEnvInt64OrDefault("FF_MAX_SUBMISSION_BYTES", 1024*1024)
	if err != nil {
		return nil, err
	}
	if cfg.MaxSubmissionBytes <= 0 {
		return nil, fmt.Errorf("FF_MAX_SUBMISSION_BYTES must be positive (got: %d)", cfg.MaxSubmissionBytes)
	}

	cfg.AuditRetentionDays, err = getEnvIntOrDefault("FF_AUDIT_RETENTION_DAYS", 180)
	if err != nil {
		return nil, err
	}

	cfg.PublicFormCacheTTLS, err = getEnvIntOrDefault("FF_PUBLIC_FORM_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	// A missing key is reported when an AI operation runs, not at startup.
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAIBaseURL = strings.TrimRight(getEnvOrDefault("FF_OPENAI_BASE_URL", "https://api.openai.com/v1"), "/")
	cfg.OpenAIModel = getEnvOrDefault("FF_OPENAI_MODEL", "gpt-4o-mini")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("FF_REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("FF_REDIS_PASSWORD")
	cfg.RedisDB, err = getEnvIntOrDefault("FF_REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg.S3Bucket = strings.TrimSpace(os.Getenv("FF_S3_BUCKET"))
	cfg.S3Region = getEnvOrDefault("FF_S3_REGION", "us-east-1")
	cfg.S3PresignMinutes, err = getEnvIntOrDefault("FF_S3_PRESIGN_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	if cfg.S3PresignMinutes <= 0 || cfg.S3PresignMinutes > 7*24*60 {
		return nil, fmt.Errorf("FF_S3_PRESIGN_MINUTES must be between 1 and 10080 (got: %d)", cfg.S3PresignMinutes)
	}

	return cfg, nil
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// StorageEnabled reports whether an upload bucket was configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// RedactedValues returns a map of config values with secrets redacted.
func (c *Config) RedactedValues() map[string]string {
	apiKey := ""
	if c.OpenAIAPIKey != "" {
		apiKey = "[REDACTED]"
	}
	return map[string]string{
		"FF_ENV":                           c.Env,
		"FF_HTTP_ADDR":                     c.HTTPAddr,
		"FF_BASE_URL":                      c.BaseURL,
		"FF_DB_DSN":                        redactDSN(c.DBDSN),
		"FF_JWT_SECRET":                    "[REDACTED]",
		"FF_LOG_LEVEL":                     c.LogLevel,
		"FF_SESSION_DAYS":                  strconv.Itoa(c.SessionDays),
		"FF_RATE_LIMIT_RPM":                strconv.Itoa(c.RateLimitRPM),
		"FF_AI_RATE_LIMIT_RPM":             strconv.Itoa(c.AIRateLimitRPM),
		"FF_MAX_SUBMISSION_BYTES":          strconv.FormatInt(c.MaxSubmissionBytes, 10),
		"FF_AUDIT_RETENTION_DAYS":          strconv.Itoa(c.AuditRetentionDays),
		"FF_PUBLIC_FORM_CACHE_TTL_SECONDS": strconv.Itoa(c.PublicFormCacheTTLS),
		"OPENAI_API_KEY":                   apiKey,
		"FF_OPENAI_BASE_URL":               c.OpenAIBaseURL,
		"FF_OPENAI_MODEL":                  c.OpenAIModel,
		"FF_REDIS_ADDR":                    c.RedisAddr,
		"FF_REDIS_DB":                      strconv.Itoa(c.RedisDB),
		"FF_S3_BUCKET":                     c.S3Bucket,
		"FF_S3_REGION":                     c.S3Region,
		"FF_S3_PRESIGN_MINUTES":            strconv.Itoa(c.S3PresignMinutes),
	}
}

func redactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start != -1 {
		if end := strings.Index(dsn[start+3:], "@"); end != -1 {
			return dsn[:start+3] + "[REDACTED]" + dsn[start+3+end:]
		}
	}
	return dsn
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}

func getEnvInt64OrDefault(key string, defaultValue int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}
