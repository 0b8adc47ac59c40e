// Package config loads server settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the YAML file read when no path is given. ANSWERX_CONFIG overrides it.
var ConfigPath = "config.yaml"

const (
	defaultSessionTTL        = 7 * 24 * time.Hour
	defaultGenerationTimeout = 60 * time.Second
	defaultMaxUploadBytes    = 16 << 20
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	DatabaseURL string `yaml:"databaseURL"`
	CORSOrigin  string `yaml:"corsOrigin"`

	JWTSecret  string `yaml:"jwtSecret"`
	SessionTTL string `yaml:"sessionTTL"`

	RedisAddr                string `yaml:"redisAddr"`
	RedisPassword            string `yaml:"redisPassword"`
	LoginRateLimitPerMinute  int    `yaml:"loginRateLimitPerMinute"`
	SignupRateLimitPerMinute int    `yaml:"signupRateLimitPerMinute"`

	TrustedProxies []string `yaml:"trustedProxies"`

	GenerationProvider string `yaml:"generationProvider"`
	GenerationBaseURL  string `yaml:"generationBaseURL"`
	GenerationAPIKey   string `yaml:"generationAPIKey"`
	GenerationModel    string `yaml:"generationModel"`
	GenerationTimeout  string `yaml:"generationTimeout"`
	HistoryLimit       int    `yaml:"historyLimit"`

	MaxUploadBytes int64 `yaml:"maxUploadBytes"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to ConfigPath). A missing file is not
// an error so deployments can configure purely through the environment.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
		if v := os.Getenv("ANSWERX_CONFIG"); v != "" {
			path = v
		}
	}
	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) error {
	strs := map[string]*string{
		"PORT":                &cfg.Port,
		"LOG_LEVEL":           &cfg.LogLevel,
		"DATABASE_URL":        &cfg.DatabaseURL,
		"CORS_ORIGIN":         &cfg.CORSOrigin,
		"JWT_SECRET":          &cfg.JWTSecret,
		"SESSION_TTL":         &cfg.SessionTTL,
		"REDIS_ADDR":          &cfg.RedisAddr,
		"REDIS_PASSWORD":      &cfg.RedisPassword,
		"GENERATION_PROVIDER": &cfg.GenerationProvider,
		"GENERATION_BASE_URL": &cfg.GenerationBaseURL,
		"GENERATION_MODEL":    &cfg.GenerationModel,
		"GENERATION_TIMEOUT":  &cfg.GenerationTimeout,
		"MINIO_ENDPOINT":      &cfg.MinioEndpoint,
		"MINIO_ACCESS_KEY":    &cfg.MinioAccessKey,
		"MINIO_SECRET_KEY":    &cfg.MinioSecretKey,
		"MINIO_BUCKET":        &cfg.MinioBucket,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("GENERATION_API_KEY"); v != "" {
		cfg.GenerationAPIKey = v
	} else if cfg.GenerationAPIKey == "" {
		cfg.GenerationAPIKey = providerKeyFromEnv(cfg.GenerationProvider)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = strings.Split(v, ",")
	}

	ints := map[string]*int{
		"HISTORY_LIMIT":                &cfg.HistoryLimit,
		"LOGIN_RATE_LIMIT_PER_MINUTE":  &cfg.LoginRateLimitPerMinute,
		"SIGNUP_RATE_LIMIT_PER_MINUTE": &cfg.SignupRateLimitPerMinute,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s must be an integer: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: MAX_UPLOAD_BYTES must be an integer: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: MINIO_USE_SSL must be a boolean: %w", err)
		}
		cfg.MinioUseSSL = b
	}
	return nil
}

// providerKeyFromEnv reads the vendor-specific key variable for provider.
func providerKeyFromEnv(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "groq":
		return os.Getenv("GROQ_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "claude", "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai-compat", "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.GenerationProvider == "" {
		cfg.GenerationProvider = "groq"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.LoginRateLimitPerMinute == 0 {
		cfg.LoginRateLimitPerMinute = 10
	}
	if cfg.SignupRateLimitPerMinute == 0 {
		cfg.SignupRateLimitPerMinute = 5
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if len(cfg.JWTSecret) < 16 {
		return errors.New("config: jwtSecret must be at least 16 characters (set in config.yaml or JWT_SECRET)")
	}
	if _, err := ParseSessionTTL(cfg.SessionTTL); err != nil {
		return err
	}
	if _, err := ParseGenerationTimeout(cfg.GenerationTimeout); err != nil {
		return err
	}
	if cfg.HistoryLimit < 0 {
		return errors.New("config: historyLimit must not be negative")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must not be negative")
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.SignupRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must not be negative")
	}
	if cfg.MinioEndpoint != "" && cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required when minioEndpoint is set")
	}
	return nil
}

// ParseSessionTTL parses sessionTTL, defaulting to seven days.
func ParseSessionTTL(raw string) (time.Duration, error) {
	return parsePositiveDuration("sessionTTL", raw, defaultSessionTTL)
}

// ParseGenerationTimeout parses generationTimeout, defaulting to 60s.
func ParseGenerationTimeout(raw string) (time.Duration, error) {
	return parsePositiveDuration("generationTimeout", raw, defaultGenerationTimeout)
}

func parsePositiveDuration(name, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", name)
	}
	return d, nil
}
