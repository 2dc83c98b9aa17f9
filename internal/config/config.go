// Package config loads settings for the target server and the browser suite
// from environment variables, an optional .env file and CLI flag overrides,
// validates them, and prints a startup summary.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/ratelimit"
	"github.com/kuitang/login-suite/internal/urlutil"
)

// Config holds all settings.
type Config struct {
	// Target server
	ListenAddr      string
	BaseURL         string
	DatabasePath    string // empty = in-memory
	DatabaseKey     []byte // SQLCipher key; empty = unencrypted
	SessionDuration time.Duration
	RateLimitConfig ratelimit.Config
	LogLevel        slog.Level

	// Browser suite
	TargetURL      string // LOGIN_BASE_URL; empty = start an in-process target
	FixturesPath   string // LOGIN_FIXTURES; empty = embedded fixtures
	Headless       bool
	BrowserTimeout time.Duration
}

// Overrides are CLI flag values. Zero values leave the environment in charge.
type Overrides struct {
	ListenAddr   string
	DatabasePath string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the process environment.
func Load(ov Overrides) (*Config, error) {
	return LoadFrom(os.LookupEnv, ov)
}

// LoadFrom reads settings through lookup and validates them. Unparseable
// values are reported together with validation problems.
func LoadFrom(lookup func(string) (string, bool), ov Overrides) (*Config, error) {
	e := &envReader{lookup: lookup}
	cfg := &Config{}

	cfg.ListenAddr = e.str("LISTEN_ADDR", ":8080")
	if ov.ListenAddr != "" {
		cfg.ListenAddr = ov.ListenAddr
	}
	cfg.BaseURL = e.str("BASE_URL", "")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL(cfg.ListenAddr)
	}
	cfg.BaseURL = urlutil.NormalizeBaseURL(cfg.BaseURL)

	cfg.DatabasePath = e.str("DATABASE_PATH", "")
	if ov.DatabasePath != "" {
		cfg.DatabasePath = ov.DatabasePath
	}
	cfg.DatabaseKey = e.hexBytes("DATABASE_KEY")
	cfg.SessionDuration = e.duration("SESSION_DURATION", 24*time.Hour)

	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             e.float("LOGIN_RATE_LIMIT_RPS", ratelimit.DefaultConfig.RPS),
		Burst:           e.integer("LOGIN_RATE_LIMIT_BURST", ratelimit.DefaultConfig.Burst),
		CleanupInterval: e.duration("RATE_LIMIT_CLEANUP_INTERVAL", ratelimit.DefaultConfig.CleanupInterval),
	}

	cfg.LogLevel = e.level("LOG_LEVEL", slog.LevelInfo)

	cfg.TargetURL = e.str("LOGIN_BASE_URL", "")
	if cfg.TargetURL != "" {
		cfg.TargetURL = urlutil.NormalizeBaseURL(cfg.TargetURL)
	}
	cfg.FixturesPath = e.str("LOGIN_FIXTURES", "")
	cfg.Headless = e.boolean("HEADLESS", true)
	cfg.BrowserTimeout = e.duration("BROWSER_TIMEOUT", 5*time.Second)

	problems := e.problems
	if err := cfg.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			problems = append(problems, ve.Errors...)
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}
	return cfg, nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	var errs []string

	if c.ListenAddr == "" {
		errs = append(errs, "LISTEN_ADDR must not be empty")
	}
	if !urlutil.IsHTTPOrigin(c.BaseURL) {
		errs = append(errs, fmt.Sprintf("BASE_URL %q must be an http(s) origin", c.BaseURL))
	}
	if c.TargetURL != "" && !urlutil.IsHTTPOrigin(c.TargetURL) {
		errs = append(errs, fmt.Sprintf("LOGIN_BASE_URL %q must be an http(s) origin", c.TargetURL))
	}
	if n := len(c.DatabaseKey); n != 0 && n != 32 {
		errs = append(errs, "DATABASE_KEY must be 64 hex characters (32 bytes)")
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, "SESSION_DURATION must be positive")
	}
	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "LOGIN_RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "LOGIN_RATE_LIMIT_BURST must be positive")
	}
	if c.RateLimitConfig.CleanupInterval <= 0 {
		errs = append(errs, "RATE_LIMIT_CLEANUP_INTERVAL must be positive")
	}
	if c.BrowserTimeout <= 0 {
		errs = append(errs, "BROWSER_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// RequireSecureCookies reports whether cookies need the Secure attribute.
func (c *Config) RequireSecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// BrowserTimeoutMS is BrowserTimeout in the unit Playwright takes.
func (c *Config) BrowserTimeoutMS() float64 {
	return float64(c.BrowserTimeout.Milliseconds())
}

// PrintStartupSummary prints a human-readable summary of the server settings.
func (c *Config) PrintStartupSummary(w io.Writer) {
	label := color.New(color.FgCyan).SprintFunc()
	value := color.New(color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, color.GreenString("login target server starting..."))

	switch {
	case c.DatabasePath == "":
		fmt.Fprintf(w, "  %s %s\n", label("Store:  "), warn("in-memory (accounts reset on restart)"))
	case len(c.DatabaseKey) > 0:
		fmt.Fprintf(w, "  %s %s (encrypted)\n", label("Store:  "), value(c.DatabasePath))
	default:
		fmt.Fprintf(w, "  %s %s\n", label("Store:  "), value(c.DatabasePath))
	}
	fmt.Fprintf(w, "  %s %s\n", label("Session:"), value(c.SessionDuration))
	fmt.Fprintf(w, "  %s %s/s, burst %s\n", label("Limit:  "),
		value(strconv.FormatFloat(c.RateLimitConfig.RPS, 'f', -1, 64)), value(c.RateLimitConfig.Burst))
	fmt.Fprintf(w, "  %s %s\n", label("Logs:   "), value(c.LogLevel))
	fmt.Fprintf(w, "  %s %s\n", label("Listen: "), value(c.ListenAddr))
	fmt.Fprintf(w, "  %s %s\n", label("Base:   "), value(c.BaseURL))
	fmt.Fprintln(w, "")
}

func defaultBaseURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		return "http://localhost" + listenAddr
	}
	return "http://" + listenAddr
}

type envReader struct {
	lookup   func(string) (string, bool)
	problems []string
}

func (e *envReader) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (e *envReader) hexBytes(key string) []byte {
	v, ok := e.raw(key)
	if !ok {
		return nil
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: not valid hex", key))
		return nil
	}
	return b
}

func (e *envReader) level(key string, def slog.Level) slog.Level {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	lvl, err := obs.ParseLevel(v)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: %q is not one of debug, info, warn, error", key, v))
		return def
	}
	return lvl
}
