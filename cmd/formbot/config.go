package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	CatalogPath  string
	TemplatesDir string
	OutputDir    string
	Admins       []string
	Session      string
	SessionTTL   time.Duration
	HistorySize  int
	RedisAddr    string
	APIKey       string
	BaseURL      string
	Model        string
	LogLevel     string
}

// loadConfig reads flags; every flag defaults to its environment variable.
func loadConfig(name string, args []string, getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	ttl, err := time.ParseDuration(env("FORMBOT_SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid FORMBOT_SESSION_TTL: %w", err)
	}

	conf := &Config{}
	var admins string
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&conf.CatalogPath, "catalog", env("FORMBOT_CATALOG", ""), "path to catalog YAML; built-in catalog when empty")
	fs.StringVar(&conf.TemplatesDir, "templates", env("FORMBOT_TEMPLATES", "templates"), "directory with DOCX templates")
	fs.StringVar(&conf.OutputDir, "output", env("FORMBOT_OUTPUT", "output"), "directory receiving delivered documents")
	fs.StringVar(&admins, "admins", env("FORMBOT_ADMINS", env("ADMINS", "")), "comma separated session ids allowed to use the bot")
	fs.StringVar(&conf.Session, "session", env("FORMBOT_SESSION", ""), "session id; random when empty")
	fs.DurationVar(&conf.SessionTTL, "session-ttl", ttl, "how long an idle session is kept")
	fs.IntVar(&conf.HistorySize, "history", 50, "chat messages kept per session")
	fs.StringVar(&conf.RedisAddr, "redis", env("REDIS_ADDR", ""), "redis address for session state; in-memory when empty")
	fs.StringVar(&conf.APIKey, "api-key", env("OPENAI_API_KEY", ""), "OpenAI compatible API key; keyword commands only when empty")
	fs.StringVar(&conf.BaseURL, "base-url", env("OPENAI_BASE_URL", ""), "OpenAI compatible base URL")
	fs.StringVar(&conf.Model, "model", env("OPENAI_MODEL", "gpt-4o-mini"), "chat model name")
	fs.StringVar(&conf.LogLevel, "log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, id := range strings.Split(admins, ",") {
		if id = strings.TrimSpace(id); id != "" {
			conf.Admins = append(conf.Admins, id)
		}
	}
	return conf, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger sends logs to stderr so they never mix with the console dialogue.
func setupLogger(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(handler))
}
