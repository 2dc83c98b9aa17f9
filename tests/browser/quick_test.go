package browser

// Quick HTTP-based checks that the target's markup matches the page object
// selectors. These don't require Playwright and run quickly.

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/login-suite/internal/pages"
)

func TestQuick_LoginPageCarriesPageObjectSelectors(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	requireInProcessTarget(t, env)

	resp, err := http.Get(env.BaseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)

	for _, id := range []string{pages.TestIDUsername, pages.TestIDPassword, pages.TestIDLoginButton} {
		require.True(t, strings.Contains(page, `data-test="`+id+`"`), "login page lacks data-test=%q", id)
	}
	require.NotContains(t, page, `data-test="`+pages.TestIDError+`"`)
}

func TestQuick_Health(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	requireInProcessTarget(t, env)

	resp, err := http.Get(env.BaseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
