package workflow

import (
	"context"
	"strings"
)

type LoginOutcome struct {
	Authenticated bool
	UserID        string
	Message       string
}

type Login struct {
	auth    AuthGateway
	session *Session
}

func NewLogin(auth AuthGateway, session *Session) *Login {
	return &Login{auth: auth, session: session}
}

// Attempt signs in with the given credentials. The email is trimmed of
// surrounding whitespace; the password is passed through unmodified and
// neither is validated for format. On failure the session is left
// unchanged and no retry happens.
func (l *Login) Attempt(ctx context.Context, email, password string) LoginOutcome {
	userID, err := l.auth.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return LoginOutcome{Message: "Sign-in failed: " + err.Error()}
	}

	l.session.begin(userID)
	return LoginOutcome{
		Authenticated: true,
		UserID:        userID,
		Message:       "Signed in.",
	}
}
