// Package pages holds page objects: one type per screen, element locators as
// fields and the primitive actions a test performs as methods. Page objects
// never assert.
package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-suite/internal/urlutil"
)

// Test-identifier attribute values on the login screen.
const (
	TestIDUsername    = "username"
	TestIDPassword    = "password"
	TestIDLoginButton = "login-button"
	TestIDError       = "error"
)

// TestIDSelector returns the CSS selector for a data-test attribute value.
func TestIDSelector(id string) string {
	return fmt.Sprintf(`[data-test=%q]`, id)
}

// DefaultTimeoutMS bounds every wait a page object performs.
const DefaultTimeoutMS = 5000

// LoginPage is the login screen.
type LoginPage struct {
	page      playwright.Page
	baseURL   string
	timeoutMS float64

	UsernameInput playwright.Locator
	PasswordInput playwright.Locator
	LoginButton   playwright.Locator
	ErrorMessage  playwright.Locator
}

// NewLoginPage binds the login screen locators to page. baseURL is the
// application origin; Goto navigates to its root.
func NewLoginPage(page playwright.Page, baseURL string) *LoginPage {
	return &LoginPage{
		page:          page,
		baseURL:       urlutil.NormalizeBaseURL(baseURL),
		timeoutMS:     DefaultTimeoutMS,
		UsernameInput: page.Locator(TestIDSelector(TestIDUsername)),
		PasswordInput: page.Locator(TestIDSelector(TestIDPassword)),
		LoginButton:   page.Locator(TestIDSelector(TestIDLoginButton)),
		ErrorMessage:  page.Locator(TestIDSelector(TestIDError)),
	}
}

// WithTimeout overrides the wait bound in milliseconds.
func (p *LoginPage) WithTimeout(ms float64) *LoginPage {
	if ms > 0 {
		p.timeoutMS = ms
	}
	return p
}

// Page returns the underlying Playwright page.
func (p *LoginPage) Page() playwright.Page {
	return p.page
}

// Goto navigates to the application entry point.
func (p *LoginPage) Goto() error {
	target := urlutil.BuildAbsolute(p.baseURL, "/")
	_, err := p.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

// Login fills both fields, either of which may be empty, and submits.
func (p *LoginPage) Login(username, password string) error {
	if err := p.UsernameInput.Fill(username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := p.PasswordInput.Fill(password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := p.LoginButton.Click(); err != nil {
		return fmt.Errorf("click login button: %w", err)
	}
	return nil
}

// ErrorMessageText returns the displayed error text. ok is false when the
// error element is not on the page. Wait for visibility first; reading
// straight after Login races the response.
func (p *LoginPage) ErrorMessageText() (text string, ok bool, err error) {
	count, err := p.ErrorMessage.Count()
	if err != nil {
		return "", false, fmt.Errorf("count error elements: %w", err)
	}
	if count == 0 {
		return "", false, nil
	}
	text, err = p.ErrorMessage.First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return "", false, fmt.Errorf("read error text: %w", err)
	}
	return text, true, nil
}

// WaitForErrorVisible blocks until the error display is visible.
func (p *LoginPage) WaitForErrorVisible() error {
	err := p.ErrorMessage.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return fmt.Errorf("error display not visible: %w", err)
	}
	return nil
}

// WaitForLanding blocks until the page URL matches pattern.
func (p *LoginPage) WaitForLanding(pattern *regexp.Regexp) error {
	err := p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return fmt.Errorf("wait for URL %s (at %s): %w", pattern, p.page.URL(), err)
	}
	return nil
}

// URL returns the current page location.
func (p *LoginPage) URL() string {
	return p.page.URL()
}
