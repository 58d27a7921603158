package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"nerva/backend/internal/ai"
)

// Config is the full runtime configuration for the server and CLI.
type Config struct {
	Port           string    `yaml:"port"`
	DBPath         string    `yaml:"db_path"`
	SilentDB       bool      `yaml:"silent_db"`
	AllowedOrigins []string  `yaml:"allowed_origins"`
	DisableAI      bool      `yaml:"disable_ai"`
	BatchLimit     int       `yaml:"batch_limit"`
	AI             ai.Config `yaml:"ai"`
	Fallback       ai.Config `yaml:"fallback"`
	Log            LogConfig `yaml:"log"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:       "2000",
		DBPath:     filepath.Join("data", "nerva.db"),
		BatchLimit: 4,
		AI: ai.Config{
			Model:       ai.DefaultModel,
			BaseURL:     ai.DefaultBaseURL,
			Temperature: 0.2,
			MaxTokens:   600,
			Timeout:     30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path (or $NERVA_CONFIG when path is empty) over the
// defaults, then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path, _ = lookup("NERVA_CONFIG")
	}
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logrus.WithField("path", path).Debug("config file not found; using defaults")
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := get("NERVA_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("NERVA_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := get("DISABLE_AI"); ok {
		cfg.DisableAI = strings.EqualFold(v, "true")
	}
	if v, ok := get("NERVA_BATCH_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("NERVA_BATCH_LIMIT: invalid value %q", v)
		}
		cfg.BatchLimit = n
	}
	if v, ok := get("NERVA_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("NERVA_LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}

	if v, ok := get("OPENAI_API_KEY"); ok {
		cfg.AI.APIKey = v
	}
	if v, ok := get("OPENAI_MODEL"); ok {
		cfg.AI.Model = v
	}
	if v, ok := get("OPENAI_BASE_URL"); ok {
		cfg.AI.BaseURL = v
	}
	if v, ok := get("OPENAI_TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AI.Temperature = f
		}
	}
	if v, ok := get("OPENAI_MAX_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.MaxTokens = n
		}
	}
	if v, ok := get("OPENAI_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AI.Timeout = d
		}
	}

	if v, ok := get("NERVA_FALLBACK_API_KEY"); ok {
		cfg.Fallback.APIKey = v
	}
	if v, ok := get("NERVA_FALLBACK_MODEL"); ok {
		cfg.Fallback.Model = v
	}
	if v, ok := get("NERVA_FALLBACK_BASE_URL"); ok {
		cfg.Fallback.BaseURL = v
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Apply configures the package-level logrus logger.
func (l LogConfig) Apply() error {
	level := strings.TrimSpace(l.Level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(parsed)

	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q not supported", l.Format)
	}
	return nil
}
