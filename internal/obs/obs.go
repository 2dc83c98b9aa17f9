// Package obs owns the process-wide JSON logger and the per-request fields
// (request ID, login scenario) that tie server events to the suite case that
// caused them.
package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

type fieldsKey struct{}

// Fields are the correlation values attached to one request.
type Fields struct {
	RequestID string
	Scenario  string
}

var (
	mu     sync.RWMutex
	root   *slog.Logger
	minLvl = new(slog.LevelVar)
)

// Init installs the JSON logger at lvl. Later calls only change the level.
func Init(lvl slog.Level) {
	minLvl.Set(lvl)
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = build(os.Stderr)
		slog.SetDefault(root)
	}
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.TrimSpace(s)))
	return lvl, err
}

// CaptureForTests sends every event at or above debug to w until the returned
// func is called.
func CaptureForTests(w io.Writer) func() {
	prevLvl := minLvl.Level()
	minLvl.Set(slog.LevelDebug)

	mu.Lock()
	prev := root
	root = build(w)
	slog.SetDefault(root)
	mu.Unlock()

	return func() {
		minLvl.Set(prevLvl)
		mu.Lock()
		defer mu.Unlock()
		root = prev
		if root == nil {
			root = build(os.Stderr)
		}
		slog.SetDefault(root)
	}
}

func build(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: minLvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}))
}

func current() *slog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		minLvl.Set(slog.LevelInfo)
		root = build(os.Stderr)
		slog.SetDefault(root)
	}
	return root
}

// Pkg returns a logger tagged with package name.
func Pkg(pkg string) *slog.Logger {
	return current().With("pkg", pkg)
}

// From returns a logger carrying the request fields stored in ctx.
func From(ctx context.Context) *slog.Logger {
	f := FieldsFrom(ctx)
	attrs := make([]any, 0, 4)
	if f.RequestID != "" {
		attrs = append(attrs, "request_id", f.RequestID)
	}
	if f.Scenario != "" {
		attrs = append(attrs, "scenario", f.Scenario)
	}
	if len(attrs) == 0 {
		return current()
	}
	return current().With(attrs...)
}

// WithFields merges f into ctx. Empty values keep what ctx already has.
func WithFields(ctx context.Context, f Fields) context.Context {
	cur := FieldsFrom(ctx)
	if f.RequestID != "" {
		cur.RequestID = f.RequestID
	}
	if s := strings.TrimSpace(f.Scenario); s != "" {
		cur.Scenario = s
	}
	return context.WithValue(ctx, fieldsKey{}, cur)
}

// FieldsFrom returns the request fields in ctx.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}
