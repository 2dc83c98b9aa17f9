// Package messages holds the validation text the login screen shows.
// Assertions check that the displayed error contains one of these fragments.
package messages

const (
	InvalidCredentials = "Username and password do not match any user in this service"
	UsernameRequired   = "Username is required"
	PasswordRequired   = "Password is required"

	// LockedOut is what the target renders for a locked account. The suite
	// takes its expectation from the fixture record, not from here.
	LockedOut = "Sorry, this user has been locked out."

	// LoginRequired is shown after an unauthenticated request for the
	// landing page is sent back to the login screen.
	LoginRequired = "You can only access '/inventory.html' when you are logged in."

	// ErrorPrefix precedes every message on the login screen.
	ErrorPrefix = "Epic sadface: "
)

// Display returns the full text the error element renders for a fragment.
func Display(fragment string) string {
	return ErrorPrefix + fragment
}
