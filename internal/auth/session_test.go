package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSessionID_HighEntropy(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		id1, err := generateSessionID()
		if err != nil {
			t.Fatalf("first generateSessionID failed: %v", err)
		}
		id2, err := generateSessionID()
		if err != nil {
			t.Fatalf("second generateSessionID failed: %v", err)
		}
		if id1 == id2 {
			t.Fatalf("session IDs collided: %s", id1)
		}
		// 32 bytes base64 (URL encoding, padded) = 44 chars
		if len(id1) != 44 {
			t.Fatalf("session ID length %d, want 44", len(id1))
		}
	})
}

func newSessionFixture(t *testing.T) (*UserService, *SessionService, *FakeClock, Account) {
	t.Helper()
	store := newTestStore(t)
	clock := NewFakeClock(time.Unix(1700000000, 0))

	users := NewUserService(store, FakeInsecureHasher{})
	users.SetClock(clock)
	require.NoError(t, users.Seed(context.Background(), DefaultAccounts()))
	acct, err := users.Authenticate(context.Background(), "standard_user", DefaultPassword)
	require.NoError(t, err)

	sessions := NewSessionService(store, time.Hour)
	sessions.SetClock(clock)
	return users, sessions, clock, acct
}

func TestSessionService_Lifecycle(t *testing.T) {
	t.Parallel()
	_, sessions, clock, acct := newSessionFixture(t)
	ctx := context.Background()

	id, err := sessions.Create(ctx, acct.ID)
	require.NoError(t, err)

	got, err := sessions.Validate(ctx, id)
	require.NoError(t, err)
	require.Equal(t, acct.ID, got)

	require.NoError(t, sessions.Delete(ctx, id))
	_, err = sessions.Validate(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)

	id, err = sessions.Create(ctx, acct.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = sessions.Validate(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)

	n, err := sessions.Cleanup(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSessionService_DefaultDuration(t *testing.T) {
	t.Parallel()
	s := NewSessionService(newTestStore(t), 0)
	require.Equal(t, DefaultSessionDuration, s.Duration())
}

func TestMiddleware_RequireSession(t *testing.T) {
	t.Parallel()
	_, sessions, _, acct := newSessionFixture(t)
	mw := NewMiddleware(sessions)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, IsAuthenticated(r.Context()))
		_, _ = w.Write([]byte(GetAccountID(r.Context())))
	})
	denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := mw.RequireSession(next, denied)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory.html", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/inventory.html", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	id, err := sessions.Create(context.Background(), acct.ID)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/inventory.html", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, acct.ID, rec.Body.String())
}

func TestCookies(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	SetCookie(rec, "abc", time.Hour, false)
	ClearCookie(rec, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, "abc", cookies[0].Value)
	require.Equal(t, 3600, cookies[0].MaxAge)
	require.False(t, cookies[0].Secure)
	require.True(t, cookies[1].Secure)
	require.Less(t, cookies[1].MaxAge, 0)
}
