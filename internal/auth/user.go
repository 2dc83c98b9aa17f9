// Package auth authenticates the target application's accounts and manages
// their browser sessions.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kuitang/login-suite/internal/db"
	"github.com/kuitang/login-suite/internal/errs"
	"github.com/kuitang/login-suite/internal/messages"
	"github.com/kuitang/login-suite/internal/obs"
)

// Sentinels under the coded errors Authenticate returns.
var (
	ErrUsernameRequired   = errors.New("username required")
	ErrPasswordRequired   = errors.New("password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("account locked")
)

// DefaultPassword is the password every seeded account shares.
const DefaultPassword = "secret_sauce"

// SeedAccount is one account to create at startup.
type SeedAccount struct {
	Username string
	Password string
	Locked   bool
}

// DefaultAccounts are the accounts the target serves out of the box.
func DefaultAccounts() []SeedAccount {
	return []SeedAccount{
		{Username: "standard_user", Password: DefaultPassword},
		{Username: "locked_out_user", Password: DefaultPassword, Locked: true},
		{Username: "problem_user", Password: DefaultPassword},
		{Username: "performance_glitch_user", Password: DefaultPassword},
	}
}

// Account is an authenticated account.
type Account struct {
	ID       string
	Username string
}

// UserService checks credentials against the account store.
type UserService struct {
	queries *db.Queries
	hasher  PasswordHasher
	clock   Clock
}

func NewUserService(store *db.Store, hasher PasswordHasher) *UserService {
	return &UserService{
		queries: store.Queries(),
		hasher:  hasher,
		clock:   realClock{},
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *UserService) SetClock(c Clock) {
	s.clock = c
}

// Seed creates or updates accounts. Re-seeding keeps account IDs stable.
func (s *UserService) Seed(ctx context.Context, accounts []SeedAccount) error {
	now := s.clock.Now().Unix()
	for _, a := range accounts {
		if a.Username == "" {
			return errs.New(errs.InvalidArgument, "seed account has empty username")
		}
		hash, err := s.hasher.HashPassword(a.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Username, err)
		}
		err = s.queries.UpsertAccount(ctx, db.UpsertAccountParams{
			ID:           uuid.NewString(),
			Username:     a.Username,
			PasswordHash: hash,
			Locked:       a.Locked,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("upsert account %s: %w", a.Username, err)
		}
	}
	obs.From(ctx).Info("accounts_seeded", "count", len(accounts))
	return nil
}

// SetLocked locks or unlocks an account.
func (s *UserService) SetLocked(ctx context.Context, username string, locked bool) error {
	n, err := s.queries.SetAccountLocked(ctx, username, locked)
	if err != nil {
		return fmt.Errorf("set locked for %s: %w", username, err)
	}
	if n == 0 {
		return errs.New(errs.NotFound, fmt.Sprintf("no account named %q", username))
	}
	return nil
}

// Authenticate checks a login form submission. Checks run in a fixed order
// and the first failure wins: username present, password present, known
// account with matching password, account not locked. Every failure is a
// coded error whose message is the text the login screen shows.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (Account, error) {
	if username == "" {
		return Account{}, errs.Wrap(errs.InvalidArgument, messages.Display(messages.UsernameRequired), ErrUsernameRequired)
	}
	if password == "" {
		return Account{}, errs.Wrap(errs.InvalidArgument, messages.Display(messages.PasswordRequired), ErrPasswordRequired)
	}

	acct, err := s.queries.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, errs.Wrap(errs.Unauthenticated, messages.Display(messages.InvalidCredentials), ErrInvalidCredentials)
		}
		return Account{}, errs.Wrap(errs.Internal, "", fmt.Errorf("get account: %w", err))
	}
	if !s.hasher.VerifyPassword(password, acct.PasswordHash) {
		return Account{}, errs.Wrap(errs.Unauthenticated, messages.Display(messages.InvalidCredentials), ErrInvalidCredentials)
	}
	if acct.Locked {
		return Account{}, errs.Wrap(errs.PermissionDenied, messages.Display(messages.LockedOut), ErrLockedOut)
	}

	return Account{ID: acct.ID, Username: acct.Username}, nil
}

// AccountByID returns the account a session belongs to.
func (s *UserService) AccountByID(ctx context.Context, id string) (Account, error) {
	acct, err := s.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, errs.Wrap(errs.NotFound, "account not found", err)
		}
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return Account{ID: acct.ID, Username: acct.Username}, nil
}
