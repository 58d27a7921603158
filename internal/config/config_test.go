package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nerva.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "2000" || cfg.AI.Model != "gpt-4.1-mini" || cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "2000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
db_path: /var/lib/nerva/nerva.db
allowed_origins: ["http://localhost:1000"]
ai:
  model: gpt-4o-mini
  timeout: 45s
fallback:
  base_url: http://localhost:11434/v1
log:
  level: debug
  format: json
`)
	cfg, err := load("", envMap(map[string]string{
		"NERVA_CONFIG":    path,
		"PORT":            "9090",
		"OPENAI_API_KEY":  "sk-test",
		"DISABLE_AI":      "TRUE",
		"NERVA_LOG_LEVEL": "  ",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("env should override port, got %s", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/nerva/nerva.db" || cfg.AI.Model != "gpt-4o-mini" || cfg.AI.Timeout != 45*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.AI.APIKey != "sk-test" || !cfg.DisableAI {
		t.Fatalf("env values not applied: %+v", cfg)
	}
	if cfg.AI.Temperature != 0.2 {
		t.Fatalf("defaults lost under partial ai block: %v", cfg.AI.Temperature)
	}
	if cfg.Fallback.BaseURL != "http://localhost:11434/v1" {
		t.Fatalf("fallback not parsed: %+v", cfg.Fallback)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("blank env should not override log level, got %q", cfg.Log.Level)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := load(writeConfig(t, "port: [unterminated"), envMap(nil)); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := load("", envMap(map[string]string{"NERVA_BATCH_LIMIT": "zero"})); err == nil {
		t.Fatal("expected batch limit error")
	}
}

func TestLogConfigApply(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	if err := (LogConfig{Level: "warn", Format: "json"}).Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level not applied: %v", logrus.GetLevel())
	}
	if err := (LogConfig{Level: "loud"}).Apply(); err == nil {
		t.Fatal("expected invalid level error")
	}
	if err := (LogConfig{Format: "xml"}).Apply(); err == nil {
		t.Fatal("expected invalid format error")
	}
}
