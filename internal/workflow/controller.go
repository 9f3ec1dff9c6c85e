package workflow

import (
	"context"
	"sync"
)

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenMenu
)

// Controller owns the session and routes between the two screens. The
// session is injected into both workflows rather than fetched from a
// global.
type Controller struct {
	auth    AuthGateway
	session *Session
	login   *Login
	menu    *Menu

	mu     sync.Mutex
	screen Screen
}

func NewController(auth AuthGateway, location LocationGateway, store StoreGateway) *Controller {
	session := &Session{}
	return &Controller{
		auth:    auth,
		session: session,
		login:   NewLogin(auth, session),
		menu:    NewMenu(location, store, session),
		screen:  ScreenLogin,
	}
}

// AttemptLogin runs the login workflow and, on success, navigates to the
// menu and establishes its live subscription. A rejected login leaves the
// screen and session untouched.
func (c *Controller) AttemptLogin(ctx context.Context, email, password string) LoginOutcome {
	outcome := c.login.Attempt(ctx, email, password)
	if !outcome.Authenticated {
		return outcome
	}

	c.setScreen(ScreenMenu)
	if err := c.menu.Enter(ctx); err != nil {
		// diagnostics handled inside the menu; the list stays empty
		outcome.Message = outcome.Message + " (live updates unavailable: " + err.Error() + ")"
	}
	return outcome
}

// SignOut releases the menu subscription, invalidates the session with the
// auth gateway, and navigates back to login. An in-flight location write
// is not awaited.
func (c *Controller) SignOut(ctx context.Context) error {
	c.menu.Leave()
	err := c.auth.SignOut(ctx)
	c.session.end()
	c.setScreen(ScreenLogin)
	return err
}

func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

func (c *Controller) Session() *Session { return c.session }
func (c *Controller) Menu() *Menu       { return c.menu }

func (c *Controller) setScreen(s Screen) {
	c.mu.Lock()
	c.screen = s
	c.mu.Unlock()
}
