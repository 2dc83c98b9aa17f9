// Package runner holds the login scenario table: which fixture records each
// case draws its credentials from, and what the login screen must show after
// submitting them.
package runner

import (
	"fmt"
	"regexp"

	"github.com/kuitang/login-suite/internal/errs"
	"github.com/kuitang/login-suite/internal/messages"
	"github.com/kuitang/login-suite/internal/scenarios"
)

// LandingPattern matches the authenticated landing location.
var LandingPattern = regexp.MustCompile(`inventory\.html`)

// Source says which record supplies a credential field.
type Source int

const (
	// Own takes the field from the case's own record.
	Own Source = iota
	// FromValid takes the field from the valid_credentials record.
	FromValid
)

// ExpectKind is the shape of the outcome a case asserts.
type ExpectKind int

const (
	ExpectLanding ExpectKind = iota
	ExpectError
)

func (k ExpectKind) String() string {
	switch k {
	case ExpectLanding:
		return "landing"
	case ExpectError:
		return "error"
	default:
		return fmt.Sprintf("ExpectKind(%d)", int(k))
	}
}

// Expectation is what a case must observe. For ExpectError either Message is
// a fixed fragment or FromRecord takes it from the record's errorMessage.
type Expectation struct {
	Kind       ExpectKind
	Message    string
	FromRecord bool
}

// Case is one row of the scenario table.
type Case struct {
	Name     string
	Tag      string
	Username Source
	Password Source
	Expect   Expectation
}

var cases = []Case{
	{
		Name:   "successful login with valid credentials",
		Tag:    scenarios.ValidCredentials,
		Expect: Expectation{Kind: ExpectLanding},
	},
	{
		Name:     "login fails with valid username and invalid password",
		Tag:      scenarios.InvalidPassword,
		Username: FromValid,
		Expect:   Expectation{Kind: ExpectError, Message: messages.InvalidCredentials},
	},
	{
		Name:     "login fails with invalid username and valid password",
		Tag:      scenarios.InvalidUsername,
		Password: FromValid,
		Expect:   Expectation{Kind: ExpectError, Message: messages.InvalidCredentials},
	},
	{
		Name:   "login fails with locked out user",
		Tag:    scenarios.LockedOutUser,
		Expect: Expectation{Kind: ExpectError, FromRecord: true},
	},
	{
		Name:   "login fails with empty username",
		Tag:    scenarios.EmptyUsername,
		Expect: Expectation{Kind: ExpectError, Message: messages.UsernameRequired},
	},
	{
		Name:     "login fails with empty password",
		Tag:      scenarios.EmptyPassword,
		Username: FromValid,
		Expect:   Expectation{Kind: ExpectError, Message: messages.PasswordRequired},
	},
	{
		// The screen checks the username first, so the combined case reports
		// the username message.
		Name:   "login fails with empty username and password",
		Tag:    scenarios.EmptyUsernameAndPassword,
		Expect: Expectation{Kind: ExpectError, Message: messages.UsernameRequired},
	},
}

// Cases returns the scenario table in execution order.
func Cases() []Case {
	out := make([]Case, len(cases))
	copy(out, cases)
	return out
}

// Attempt is a case with its credentials and expected message resolved.
type Attempt struct {
	Case     Case
	Username string
	Password string
	// Message is the fragment the error display must contain; empty for
	// landing cases.
	Message string
}

// Resolve performs every fixture lookup c needs. It touches no browser, so a
// missing record fails the case before any page is opened.
func Resolve(c Case, col *scenarios.Collection) (Attempt, error) {
	own, err := col.Find(c.Tag)
	if err != nil {
		return Attempt{}, fmt.Errorf("case %q: %w", c.Name, err)
	}

	var valid scenarios.Scenario
	if c.Username == FromValid || c.Password == FromValid {
		valid, err = col.Valid()
		if err != nil {
			return Attempt{}, fmt.Errorf("case %q needs valid credentials: %w", c.Name, err)
		}
	}

	a := Attempt{
		Case:     c,
		Username: pick(c.Username, own.Username, valid.Username),
		Password: pick(c.Password, own.Password, valid.Password),
	}

	if c.Expect.Kind == ExpectError {
		a.Message = c.Expect.Message
		if c.Expect.FromRecord {
			if own.ErrorMessage == "" {
				return Attempt{}, errs.Wrap(errs.NotFound,
					fmt.Sprintf("test data for scenario %q has no errorMessage", c.Tag), scenarios.ErrScenarioNotFound)
			}
			a.Message = own.ErrorMessage
		}
	}
	return a, nil
}

// ResolveAll resolves every case in the table. The first missing record stops
// the sweep.
func ResolveAll(col *scenarios.Collection) ([]Attempt, error) {
	out := make([]Attempt, 0, len(cases))
	for _, c := range cases {
		a, err := Resolve(c, col)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func pick(src Source, own, valid string) string {
	if src == FromValid {
		return valid
	}
	return own
}
