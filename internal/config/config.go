package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const DefaultFile = "rollcall.json5"

// Config is read from defaults, then the json5 config file (and its .local override),
// then environment variables, each layer overriding the previous.
type Config struct {
	Env                  string `json:"env"`
	ListenAddr           string `json:"listen_addr"`
	DatabaseURL          string `json:"database_url"`
	RosterPath           string `json:"roster_path"`
	ExportDir            string `json:"export_dir"`
	ExportWorkers        int    `json:"export_workers"`
	ExportConcurrency    int    `json:"export_concurrency"`
	HackerRankBadgeURL   string `json:"hackerrank_badge_url"`
	LeetCodeStatsURL     string `json:"leetcode_stats_url"`
	BadgeTimeoutSeconds  int    `json:"badge_timeout_seconds"`
	StatsTimeoutSeconds  int    `json:"stats_timeout_seconds"`
	FetchCacheTTLSeconds int    `json:"fetch_cache_ttl_seconds"`
	UploadMaxBytes       int64  `json:"upload_max_bytes"`
	LogLevel             string `json:"log_level"`
	LogFormat            string `json:"log_format"`
}

func Defaults() Config {
	return Config{
		Env:                 "development",
		ListenAddr:          ":8080",
		ExportDir:           filepath.Join(os.TempDir(), "rollcall-exports"),
		ExportWorkers:       1,
		ExportConcurrency:   1,
		HackerRankBadgeURL:  "https://hackerrank-badges.vercel.app",
		LeetCodeStatsURL:    "https://leetcode-stats-api.herokuapp.com",
		BadgeTimeoutSeconds: 15,
		StatsTimeoutSeconds: 10,
		UploadMaxBytes:      10 << 20,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

// Load builds the configuration. A missing config file is not an error.
func Load() (Config, error) {
	cfg := Defaults()

	name := getenv("CONFIG_FILE", DefaultFile)
	fileCfg, err := ReadFile(name)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", name, err)
	default:
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("merge config %s: %w", name, err)
		}
	}

	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RosterPath = getenv("ROSTER_PATH", cfg.RosterPath)
	cfg.ExportDir = getenv("EXPORT_DIR", cfg.ExportDir)
	cfg.ExportWorkers = getenvInt("EXPORT_WORKERS", cfg.ExportWorkers)
	cfg.ExportConcurrency = getenvInt("EXPORT_CONCURRENCY", cfg.ExportConcurrency)
	cfg.HackerRankBadgeURL = getenv("HACKERRANK_BADGE_URL", cfg.HackerRankBadgeURL)
	cfg.LeetCodeStatsURL = getenv("LEETCODE_STATS_URL", cfg.LeetCodeStatsURL)
	cfg.BadgeTimeoutSeconds = getenvInt("BADGE_TIMEOUT_SECONDS", cfg.BadgeTimeoutSeconds)
	cfg.StatsTimeoutSeconds = getenvInt("STATS_TIMEOUT_SECONDS", cfg.StatsTimeoutSeconds)
	cfg.FetchCacheTTLSeconds = getenvInt("FETCH_CACHE_TTL_SECONDS", cfg.FetchCacheTTLSeconds)
	cfg.UploadMaxBytes = int64(getenvInt("UPLOAD_MAX_BYTES", int(cfg.UploadMaxBytes)))
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.BadgeTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("badge timeout must be positive, got %d", c.BadgeTimeoutSeconds))
	}
	if c.StatsTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("stats timeout must be positive, got %d", c.StatsTimeoutSeconds))
	}
	if c.ExportConcurrency < 1 {
		errs = append(errs, fmt.Errorf("export concurrency must be at least 1, got %d", c.ExportConcurrency))
	}
	if c.ExportWorkers < 0 {
		errs = append(errs, fmt.Errorf("export workers must not be negative, got %d", c.ExportWorkers))
	}
	if c.FetchCacheTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("fetch cache ttl must not be negative, got %d", c.FetchCacheTTLSeconds))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload limit must be positive, got %d", c.UploadMaxBytes))
	}
	return errors.Join(errs...)
}

func (c Config) BadgeTimeout() time.Duration {
	return time.Duration(c.BadgeTimeoutSeconds) * time.Second
}

func (c Config) StatsTimeout() time.Duration {
	return time.Duration(c.StatsTimeoutSeconds) * time.Second
}

func (c Config) FetchCacheTTL() time.Duration {
	return time.Duration(c.FetchCacheTTLSeconds) * time.Second
}

// ReadFile reads a json5 config file and merges <name>.local.<ext> over it when present.
// It returns os.ErrNotExist when neither file exists.
func ReadFile(name string) (Config, error) {
	var out Config
	found := false

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, err
		}
		found = true
	}

	ext := filepath.Ext(name)
	localName := strings.TrimSuffix(name, ext) + ".local" + ext
	local, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override Config
		if err := json5.Unmarshal(local, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localName)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}
