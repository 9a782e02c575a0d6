package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/oggyb/campus-match/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const textTimeLayout = "2006-01-02 15:04:05"

// Config describes how the process-wide logger renders records.
// Env and Component are attached to every record when set.
type Config struct {
	Level      string
	Format     Format
	Component  string
	Env        string
	WithSource bool
}

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stdout
	logger *slog.Logger

	defaultConfig = Config{
		Level:  "info",
		Format: FormatText,
	}
	cfg = defaultConfig
)

// InitFromConfig derives the logger setup from the loaded application config.
// Production deployments without an explicit format log JSON.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(nil)
		return
	}
	lc := Config{
		Level:      c.Log.Level,
		Format:     Format(c.Log.Format),
		Component:  c.Log.Component,
		Env:        c.App.ENV,
		WithSource: c.Log.Source,
	}
	if lc.Format == "" {
		lc.Format = FormatText
		if lc.Env == "production" {
			lc.Format = FormatJSON
		}
	}
	Init(&lc)
}

// Init swaps the global logger. A nil config rebuilds with the last one used.
func Init(c *Config) {
	mu.Lock()
	defer mu.Unlock()

	if c != nil {
		cfg = *c
	}
	logger = build(out, cfg)
}

func build(w io.Writer, c Config) *slog.Logger {
	l := slog.New(newHandler(w, c))
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	if c.Env != "" {
		l = l.With("env", c.Env)
	}
	return l
}

func newHandler(w io.Writer, c Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
	}
	if Format(strings.ToLower(string(c.Format))) == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.String(slog.TimeKey, a.Value.Time().Format(textTimeLayout))
		}
		return a
	}
	return slog.NewTextHandler(w, opts)
}

// SetOutput redirects the global logger and rebuilds it with the current config.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
	Init(nil)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// L returns the global logger, building the default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(nil)
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
