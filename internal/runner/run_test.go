package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/login-suite/internal/auth"
	"github.com/kuitang/login-suite/internal/db"
	"github.com/kuitang/login-suite/internal/errs"
	"github.com/kuitang/login-suite/internal/messages"
	"github.com/kuitang/login-suite/internal/scenarios"
	"github.com/kuitang/login-suite/internal/urlutil"
)

const fakeOrigin = "http://target.test"

// fakeScreen plays the login screen against the real authentication service
// without a browser.
type fakeScreen struct {
	users *auth.UserService

	url       string
	errorText string
	calls     []string
}

func (s *fakeScreen) Goto() error {
	s.calls = append(s.calls, "goto")
	s.url = fakeOrigin + "/"
	s.errorText = ""
	return nil
}

func (s *fakeScreen) Login(username, password string) error {
	s.calls = append(s.calls, "login")
	if _, err := s.users.Authenticate(context.Background(), username, password); err != nil {
		s.errorText = errs.MessageOf(err)
		return nil
	}
	s.url = fakeOrigin + "/inventory.html"
	return nil
}

func (s *fakeScreen) WaitForLanding(pattern *regexp.Regexp) error {
	s.calls = append(s.calls, "wait_landing")
	if !urlutil.PathMatches(s.url, pattern) {
		return fmt.Errorf("timeout waiting for %s at %s", pattern, s.url)
	}
	return nil
}

func (s *fakeScreen) WaitForErrorVisible() error {
	s.calls = append(s.calls, "wait_error")
	if s.errorText == "" {
		return errors.New("timeout waiting for error display")
	}
	return nil
}

func (s *fakeScreen) ErrorMessageText() (string, bool, error) {
	s.calls = append(s.calls, "read_error")
	return s.errorText, s.errorText != "", nil
}

func (s *fakeScreen) URL() string { return s.url }

var storeCounter uint64

func newFakeScreen(t *testing.T) *fakeScreen {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenInMemory(ctx, fmt.Sprintf("runnertest-%d", atomic.AddUint64(&storeCounter, 1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users := auth.NewUserService(store, auth.FakeInsecureHasher{})
	require.NoError(t, users.Seed(ctx, auth.DefaultAccounts()))
	return &fakeScreen{users: users}
}

func TestExecute_AllCasesPassAgainstTarget(t *testing.T) {
	t.Parallel()
	col, err := scenarios.Default()
	require.NoError(t, err)

	for _, c := range Cases() {
		c := c
		t.Run(c.Tag, func(t *testing.T) {
			t.Parallel()
			a, err := Resolve(c, col)
			require.NoError(t, err)

			screen := newFakeScreen(t)
			out, err := Execute(screen, a)
			require.NoError(t, err)

			switch c.Expect.Kind {
			case ExpectLanding:
				require.Equal(t, []string{"goto", "login", "wait_landing"}, screen.calls)
				require.True(t, urlutil.PathMatches(out.URL, LandingPattern))
			case ExpectError:
				require.Equal(t, []string{"goto", "login", "wait_error", "read_error"}, screen.calls)
				require.True(t, out.ErrorVisible)
				require.Contains(t, out.ErrorText, a.Message)
				require.True(t, strings.HasPrefix(out.ErrorText, messages.ErrorPrefix))
				require.False(t, urlutil.PathMatches(out.URL, LandingPattern))
			}
		})
	}
}

func TestExecute_WaitFailureIsNotAssertion(t *testing.T) {
	t.Parallel()
	screen := newFakeScreen(t)

	// A valid login checked as if it should fail never shows an error.
	a := Attempt{
		Case:     Case{Name: "inverted", Tag: "inverted", Expect: Expectation{Kind: ExpectError}},
		Username: "standard_user",
		Password: auth.DefaultPassword,
		Message:  messages.InvalidCredentials,
	}
	_, err := Execute(screen, a)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAssertion, "the wait fails before any assertion")
	require.Contains(t, err.Error(), "inverted")
}

func TestVerify(t *testing.T) {
	t.Parallel()
	landing := Attempt{Case: Case{Tag: scenarios.ValidCredentials, Expect: Expectation{Kind: ExpectLanding}}}
	failing := Attempt{
		Case:    Case{Tag: scenarios.InvalidPassword, Expect: Expectation{Kind: ExpectError}},
		Message: messages.InvalidCredentials,
	}
	full := messages.Display(messages.InvalidCredentials)

	tests := []struct {
		name    string
		attempt Attempt
		outcome Outcome
		ok      bool
	}{
		{"landed", landing, Outcome{URL: fakeOrigin + "/inventory.html"}, true},
		{"landed with query", landing, Outcome{URL: fakeOrigin + "/inventory.html?x=1"}, true},
		{"did not land", landing, Outcome{URL: fakeOrigin + "/"}, false},
		{"landing pattern only in query", landing, Outcome{URL: fakeOrigin + "/?next=inventory.html"}, false},
		{"error shown", failing, Outcome{URL: fakeOrigin + "/", ErrorVisible: true, ErrorText: full}, true},
		{"error absent", failing, Outcome{URL: fakeOrigin + "/"}, false},
		{"wrong message", failing, Outcome{URL: fakeOrigin + "/", ErrorVisible: true, ErrorText: messages.Display(messages.PasswordRequired)}, false},
		{"error shown but navigated", failing, Outcome{URL: fakeOrigin + "/inventory.html", ErrorVisible: true, ErrorText: full}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.attempt, tt.outcome)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrAssertion)
		})
	}
}
