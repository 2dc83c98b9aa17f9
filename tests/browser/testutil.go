// Package browser runs the login scenarios in a real Chromium through
// Playwright. By default the target is started in-process on an httptest
// server; set LOGIN_BASE_URL to run against a deployed application instead.
//
// Prerequisites:
// - Install Playwright browsers: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
// - Run tests with: go test -v ./tests/browser/...
package browser

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-suite/internal/auth"
	"github.com/kuitang/login-suite/internal/config"
	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/scenarios"
	"github.com/kuitang/login-suite/internal/target"
)

const (
	// Always use these timeout constants for browser tests. BROWSER_TIMEOUT
	// may lower the bound but never raise it.
	browserMaxTimeoutMS = 5000
	browserMaxTimeout   = 5 * time.Second
)

var browserFixtureMu sync.Mutex
var browserSharedFixture *BrowserTestEnv

// BrowserTestEnv is the shared environment for all browser tests.
type BrowserTestEnv struct {
	Config   *config.Config
	BaseURL  string
	Fixtures *scenarios.Collection

	// Target and Server are nil when running against LOGIN_BASE_URL.
	Target *target.Target
	Server *httptest.Server

	timeoutMS float64

	pw        *playwright.Playwright
	browser   playwright.Browser
	browserMu sync.Mutex
}

// SetupBrowserTestEnv returns the shared environment, creating it on first use.
func SetupBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	if browserSharedFixture != nil {
		return browserSharedFixture
	}
	browserSharedFixture = createBrowserTestEnv(t)
	return browserSharedFixture
}

func createBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	fixtures, err := loadFixtures(cfg)
	if err != nil {
		t.Fatalf("Failed to load fixtures: %v", err)
	}

	env := &BrowserTestEnv{
		Config:    cfg,
		Fixtures:  fixtures,
		timeoutMS: min(cfg.BrowserTimeoutMS(), browserMaxTimeoutMS),
	}

	if cfg.TargetURL != "" {
		env.BaseURL = cfg.TargetURL
		return env
	}

	// Fresh in-memory store; the fake hasher keeps seeding instant. Login
	// throttling is off so the whole suite can run from one address.
	cfg.DatabasePath = ""
	tg, err := target.New(context.Background(), cfg, target.Options{
		Hasher:      auth.FakeInsecureHasher{},
		NoRateLimit: true,
	})
	if err != nil {
		t.Fatalf("Failed to start target: %v", err)
	}
	env.Target = tg
	env.Server = httptest.NewServer(tg.Handler())
	env.BaseURL = env.Server.URL
	return env
}

func loadFixtures(cfg *config.Config) (*scenarios.Collection, error) {
	if cfg.FixturesPath != "" {
		return scenarios.LoadFile(cfg.FixturesPath)
	}
	return scenarios.Default()
}

// External reports whether the suite targets a deployment it did not start.
func (env *BrowserTestEnv) External() bool {
	return env.Target == nil
}

// TimeoutMS is the bound every page object wait uses.
func (env *BrowserTestEnv) TimeoutMS() float64 {
	return env.timeoutMS
}

// InitBrowser initializes Playwright and launches Chromium. Skips the test if not available.
func (env *BrowserTestEnv) InitBrowser(t *testing.T) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(env.Config.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	env.pw = pw
	env.browser = browser
}

// NewContext creates an isolated browser context whose requests carry the
// scenario tag, so target logs line up with the case. Closed on test cleanup.
func (env *BrowserTestEnv) NewContext(t *testing.T, scenario string) playwright.BrowserContext {
	t.Helper()

	opts := playwright.BrowserNewContextOptions{}
	if scenario != "" {
		opts.ExtraHttpHeaders = map[string]string{obs.ScenarioHeader: scenario}
	}
	ctx, err := env.browser.NewContext(opts)
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	ctx.SetDefaultTimeout(env.timeoutMS)
	ctx.SetDefaultNavigationTimeout(env.timeoutMS)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// NewPage opens a page in a fresh context for scenario.
func (env *BrowserTestEnv) NewPage(t *testing.T, scenario string) playwright.Page {
	t.Helper()

	page, err := env.NewContext(t, scenario).NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return page
}

func cleanupSharedBrowserTestEnv() {
	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	if browserSharedFixture == nil {
		return
	}
	if browserSharedFixture.browser != nil {
		_ = browserSharedFixture.browser.Close()
	}
	if browserSharedFixture.pw != nil {
		_ = browserSharedFixture.pw.Stop()
	}
	if browserSharedFixture.Server != nil {
		browserSharedFixture.Server.Close()
	}
	if browserSharedFixture.Target != nil {
		_ = browserSharedFixture.Target.Close()
	}
	browserSharedFixture = nil
}
