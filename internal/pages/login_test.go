package pages

import "testing"

func TestTestIDSelector(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		TestIDUsername:    `[data-test="username"]`,
		TestIDPassword:    `[data-test="password"]`,
		TestIDLoginButton: `[data-test="login-button"]`,
		TestIDError:       `[data-test="error"]`,
	}
	for id, want := range cases {
		if got := TestIDSelector(id); got != want {
			t.Errorf("TestIDSelector(%q) = %s, want %s", id, got, want)
		}
	}
}
