package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kuitang/login-suite/internal/logutil"
	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/urlutil"
)

// ErrAssertion marks an observed outcome that does not match the case.
var ErrAssertion = errors.New("assertion failed")

// Screen is the subset of the login page object a run drives.
// *pages.LoginPage satisfies it.
type Screen interface {
	Goto() error
	Login(username, password string) error
	WaitForLanding(pattern *regexp.Regexp) error
	WaitForErrorVisible() error
	ErrorMessageText() (string, bool, error)
	URL() string
}

// Outcome is what the screen showed after one submission.
type Outcome struct {
	URL          string
	ErrorVisible bool
	ErrorText    string
}

func logger() *slog.Logger {
	return obs.Pkg("runner")
}

// Run drives one attempt: navigate, fill, submit, then wait for the outcome
// the case expects. Each step runs once; the only waits are the page
// object's visibility and navigation waits.
func Run(screen Screen, a Attempt) (Outcome, error) {
	logger().Debug("scenario_start",
		"scenario", a.Case.Tag,
		"username", a.Username,
		"password", logutil.RedactValue("password", a.Password),
		"expect", a.Case.Expect.Kind.String(),
	)

	if err := screen.Goto(); err != nil {
		return Outcome{}, err
	}
	if err := screen.Login(a.Username, a.Password); err != nil {
		return Outcome{}, err
	}

	switch a.Case.Expect.Kind {
	case ExpectLanding:
		if err := screen.WaitForLanding(LandingPattern); err != nil {
			return Outcome{URL: screen.URL()}, err
		}
		return Outcome{URL: screen.URL()}, nil
	case ExpectError:
		if err := screen.WaitForErrorVisible(); err != nil {
			return Outcome{URL: screen.URL()}, err
		}
		text, ok, err := screen.ErrorMessageText()
		if err != nil {
			return Outcome{URL: screen.URL()}, err
		}
		out := Outcome{URL: screen.URL(), ErrorVisible: ok, ErrorText: text}
		logger().Debug("scenario_error_text",
			"scenario", a.Case.Tag,
			"text", logutil.TruncateForLog(text, 200),
		)
		return out, nil
	default:
		return Outcome{}, fmt.Errorf("case %q: unknown expectation %s", a.Case.Name, a.Case.Expect.Kind)
	}
}

// Verify compares an outcome with the attempt's expectation.
func Verify(a Attempt, o Outcome) error {
	landed := urlutil.PathMatches(o.URL, LandingPattern)

	switch a.Case.Expect.Kind {
	case ExpectLanding:
		if !landed {
			return fmt.Errorf("%w: %s: expected URL matching %s, got %q", ErrAssertion, a.Case.Tag, LandingPattern, o.URL)
		}
		return nil
	case ExpectError:
		if landed {
			return fmt.Errorf("%w: %s: expected no navigation, landed on %q", ErrAssertion, a.Case.Tag, o.URL)
		}
		if !o.ErrorVisible {
			return fmt.Errorf("%w: %s: error display absent", ErrAssertion, a.Case.Tag)
		}
		if !strings.Contains(o.ErrorText, a.Message) {
			return fmt.Errorf("%w: %s: error text %q does not contain %q", ErrAssertion, a.Case.Tag, o.ErrorText, a.Message)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s: unknown expectation %s", ErrAssertion, a.Case.Tag, a.Case.Expect.Kind)
	}
}

// Execute runs an attempt and verifies the outcome.
func Execute(screen Screen, a Attempt) (Outcome, error) {
	out, err := Run(screen, a)
	if err != nil {
		return out, fmt.Errorf("scenario %s: %w", a.Case.Tag, err)
	}
	return out, Verify(a, out)
}
