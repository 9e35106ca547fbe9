package apiclient

import "github.com/rs/zerolog"

// LoginRedirector is told when the session ended and the user must sign in again.
type LoginRedirector interface {
	// OnLoginScreen reports whether the login screen is already showing.
	OnLoginScreen() bool
	RedirectToLogin()
}

// RedirectFunc adapts a plain function to LoginRedirector. It never reports
// the login screen as current.
type RedirectFunc func()

func (f RedirectFunc) OnLoginScreen() bool { return false }

func (f RedirectFunc) RedirectToLogin() { f() }

type logRedirector struct {
	logger zerolog.Logger
}

func (r logRedirector) OnLoginScreen() bool { return false }

func (r logRedirector) RedirectToLogin() {
	r.logger.Info().Msg("session ended, sign in again")
}
