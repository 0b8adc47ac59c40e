package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANSWERX_CONFIG", "PORT", "LOG_LEVEL", "DATABASE_URL", "CORS_ORIGIN", "JWT_SECRET", "SESSION_TTL",
		"REDIS_ADDR", "REDIS_PASSWORD", "GENERATION_PROVIDER", "GENERATION_BASE_URL", "GENERATION_MODEL",
		"GENERATION_TIMEOUT", "GENERATION_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
		"OPENAI_API_KEY", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
		"MINIO_USE_SSL", "TRUSTED_PROXIES", "HISTORY_LIMIT", "LOGIN_RATE_LIMIT_PER_MINUTE",
		"SIGNUP_RATE_LIMIT_PER_MINUTE", "MAX_UPLOAD_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: "8080"
databaseURL: "sqlite://answerx.db"
jwtSecret: "yaml-secret-0123456789"
sessionTTL: "24h"
generationProvider: "ollama"
generationModel: "llama3"
historyLimit: 4
trustedProxies: ["10.0.0.0/8"]
`)
	t.Setenv("DATABASE_URL", "postgres://u:p@db/answerx")
	t.Setenv("HISTORY_LIMIT", "6")
	t.Setenv("GENERATION_TIMEOUT", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DatabaseURL != "postgres://u:p@db/answerx" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.HistoryLimit != 6 || cfg.GenerationProvider != "ollama" || len(cfg.TrustedProxies) != 1 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	ttl, _ := ParseSessionTTL(cfg.SessionTTL)
	if ttl != 24*time.Hour {
		t.Fatalf("unexpected session ttl %v", ttl)
	}
	timeout, _ := ParseGenerationTimeout(cfg.GenerationTimeout)
	if timeout != 90*time.Second {
		t.Fatalf("unexpected generation timeout %v", timeout)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://answerx.db")
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "5000" || cfg.GenerationProvider != "groq" || cfg.MaxUploadBytes != 16<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GenerationAPIKey != "gsk_test" {
		t.Fatalf("expected groq key from env, got %q", cfg.GenerationAPIKey)
	}
	ttl, _ := ParseSessionTTL(cfg.SessionTTL)
	if ttl != 7*24*time.Hour {
		t.Fatalf("expected 7 day default session ttl, got %v", ttl)
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "missing database", yaml: `jwtSecret: "0123456789abcdef"`, want: "databaseURL"},
		{name: "short secret", yaml: "databaseURL: x\njwtSecret: short", want: "jwtSecret"},
		{name: "bad ttl", yaml: "databaseURL: x\njwtSecret: 0123456789abcdef\nsessionTTL: soon", want: "sessionTTL"},
		{name: "negative timeout", yaml: "databaseURL: x\njwtSecret: 0123456789abcdef\ngenerationTimeout: -1s", want: "generationTimeout"},
		{name: "negative history", yaml: "databaseURL: x\njwtSecret: 0123456789abcdef\nhistoryLimit: -1", want: "historyLimit"},
		{name: "bucketless minio", yaml: "databaseURL: x\njwtSecret: 0123456789abcdef\nminioEndpoint: localhost:9000", want: "minioBucket"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsBadIntegerEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_LIMIT", "lots")
	if _, err := Load(writeConfig(t, "databaseURL: x\njwtSecret: 0123456789abcdef")); err == nil {
		t.Fatalf("expected error for non-integer HISTORY_LIMIT")
	}
}
