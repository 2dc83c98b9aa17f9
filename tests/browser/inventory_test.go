package browser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/login-suite/internal/messages"
	"github.com/kuitang/login-suite/internal/pages"
	"github.com/kuitang/login-suite/internal/runner"
	"github.com/kuitang/login-suite/internal/web"
)

// The in-process target's inventory and logout markup; external deployments
// are only held to the login screen contract.
func requireInProcessTarget(t *testing.T, env *BrowserTestEnv) {
	t.Helper()
	if env.External() {
		t.Skip("inventory markup is only known for the in-process target")
	}
}

func TestBrowser_Inventory_ListAndLogout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	requireInProcessTarget(t, env)

	valid, err := env.Fixtures.Valid()
	require.NoError(t, err)

	env.InitBrowser(t)
	page := env.NewPage(t, valid.Tag)
	login := pages.NewLoginPage(page, env.BaseURL).WithTimeout(env.TimeoutMS())

	require.NoError(t, login.Goto())
	require.NoError(t, login.Login(valid.Username, valid.Password))
	require.NoError(t, login.WaitForLanding(runner.LandingPattern))

	inventory := pages.NewInventoryPage(page)
	require.NoError(t, inventory.WaitForList())
	n, err := inventory.ItemCount()
	require.NoError(t, err)
	require.Equal(t, len(web.Catalog()), n)

	require.NoError(t, inventory.Logout())
	require.NoError(t, login.UsernameInput.WaitFor())

	// The session is gone: the landing page sends the browser back.
	_, err = page.Goto(env.BaseURL + web.LandingPath)
	require.NoError(t, err)
	require.NoError(t, login.WaitForErrorVisible())
	text, ok, err := login.ErrorMessageText()
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, text, messages.LoginRequired)
}

func TestBrowser_Inventory_RequiresLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	requireInProcessTarget(t, env)
	env.InitBrowser(t)

	page := env.NewPage(t, "")
	_, err := page.Goto(env.BaseURL + web.LandingPath)
	require.NoError(t, err)

	login := pages.NewLoginPage(page, env.BaseURL).WithTimeout(env.TimeoutMS())
	require.NoError(t, login.WaitForErrorVisible())
	text, _, err := login.ErrorMessageText()
	require.NoError(t, err)
	require.Equal(t, messages.Display(messages.LoginRequired), text)
}
