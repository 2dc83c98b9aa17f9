package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAccessLog_CarriesScenarioAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	restore := CaptureForTests(&buf)
	defer restore()

	handler := RequestContextMiddleware(AccessLogMiddleware("web", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	})))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ScenarioHeader, "locked_out_user")
	req.Header.Set(RequestIDHeader, "req-fixed")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "req-fixed", rec.Header().Get(RequestIDHeader))

	var event map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	require.Equal(t, "http_access", event["msg"])
	require.Equal(t, "locked_out_user", event["scenario"])
	require.Equal(t, "req-fixed", event["request_id"])
	require.EqualValues(t, http.StatusSeeOther, event["status"])
}

func TestAccessLog_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	restore := CaptureForTests(&buf)
	defer restore()

	handler := AccessLogMiddleware("web", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var event map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	require.EqualValues(t, http.StatusOK, event["status"])
	require.EqualValues(t, 2, event["resp_bytes"])
}

func TestRequestContext_GeneratesRequestID(t *testing.T) {
	var seen Fields
	handler := RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FieldsFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, strings.HasPrefix(seen.RequestID, "req-"))
	require.Equal(t, seen.RequestID, rec.Header().Get(RequestIDHeader))
	require.Empty(t, seen.Scenario)
}

func TestWithFields_KeepsExistingOnEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`req-[a-z0-9]{1,12}`).Draw(t, "id")
		tag := rapid.StringMatching(`[a-z_]{1,20}`).Draw(t, "tag")

		ctx := WithFields(context.Background(), Fields{RequestID: id, Scenario: tag})
		ctx = WithFields(ctx, Fields{Scenario: "  "})

		got := FieldsFrom(ctx)
		if got.RequestID != id || got.Scenario != tag {
			t.Fatalf("fields = %+v, want {%s %s}", got, id, tag)
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}
