// Package target assembles the login application from configuration: store,
// seeded accounts, sessions, login throttling and HTTP routes.
package target

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kuitang/login-suite/internal/auth"
	"github.com/kuitang/login-suite/internal/config"
	"github.com/kuitang/login-suite/internal/db"
	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/ratelimit"
	"github.com/kuitang/login-suite/internal/web"
)

// Options adjust assembly for tests and tools.
type Options struct {
	// Hasher defaults to auth.Argon2Hasher.
	Hasher auth.PasswordHasher
	// Accounts defaults to auth.DefaultAccounts. An empty non-nil slice seeds nothing.
	Accounts []auth.SeedAccount
	// NoRateLimit disables login throttling.
	NoRateLimit bool
}

// Target is an assembled login application.
type Target struct {
	Store    *db.Store
	Users    *auth.UserService
	Sessions *auth.SessionService
	limiter  *ratelimit.RateLimiter
	handler  http.Handler
}

var memCounter atomic.Uint64

// New opens the store, seeds accounts and builds the routes.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Target, error) {
	var (
		store *db.Store
		err   error
	)
	if cfg.DatabasePath == "" {
		store, err = db.OpenInMemory(ctx, fmt.Sprintf("login-target-%d", memCounter.Add(1)))
	} else {
		store, err = db.Open(ctx, cfg.DatabasePath, cfg.DatabaseKey)
	}
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}

	hasher := opts.Hasher
	if hasher == nil {
		hasher = auth.Argon2Hasher{}
	}
	accounts := opts.Accounts
	if accounts == nil {
		accounts = auth.DefaultAccounts()
	}

	users := auth.NewUserService(store, hasher)
	if err := users.Seed(ctx, accounts); err != nil {
		store.Close()
		return nil, fmt.Errorf("seed accounts: %w", err)
	}
	sessions := auth.NewSessionService(store, cfg.SessionDuration)

	renderer, err := web.NewRenderer()
	if err != nil {
		store.Close()
		return nil, err
	}

	var limiter *ratelimit.RateLimiter
	if !opts.NoRateLimit {
		limiter = ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	}

	h := web.NewHandler(renderer, users, sessions, limiter, cfg.RequireSecureCookies())
	return &Target{
		Store:    store,
		Users:    users,
		Sessions: sessions,
		limiter:  limiter,
		handler:  h.Routes(),
	}, nil
}

// Handler returns the application's HTTP handler.
func (t *Target) Handler() http.Handler {
	return t.handler
}

// RunSessionCleanup deletes expired sessions every interval until ctx ends.
func (t *Target) RunSessionCleanup(ctx context.Context, interval time.Duration) {
	logger := obs.Pkg("target")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.Sessions.Cleanup(ctx)
			if err != nil {
				logger.Warn("session_cleanup_failed", "error", err.Error())
				continue
			}
			if n > 0 {
				logger.Info("sessions_expired", "count", n)
			}
		}
	}
}

// Close stops the limiter and closes the store.
func (t *Target) Close() error {
	if t.limiter != nil {
		t.limiter.Stop()
	}
	return t.Store.Close()
}
