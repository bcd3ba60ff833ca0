// Package guard decides, for every view, whether to show it, show a loading
// placeholder, or send the user elsewhere based on the current session.
package guard

import (
	"strings"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// Action is what a view should do for the current session.
type Action int

const (
	// ActionRender shows the requested view.
	ActionRender Action = iota
	// ActionLoading shows a neutral placeholder until the session resolves.
	ActionLoading
	// ActionRedirect sends the user to Decision.Target.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionLoading:
		return "loading"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Guard.Decide.
type Decision struct {
	Action Action
	Target string
}

// SessionSource exposes the current session.
type SessionSource interface {
	Snapshot() sdk.Session
}

// Guard maps (path, session) to a Decision. The zero value uses the default
// application routes.
type Guard struct {
	LoginPath  string
	SignupPath string
	HomePath   string
	// Public paths render for everyone, signed in or not.
	Public []string
}

// Default returns a Guard for the standard application routes.
func Default() Guard {
	return Guard{
		LoginPath:  routes.AppLogin,
		SignupPath: routes.AppSignup,
		HomePath:   routes.AppHome,
		Public:     []string{routes.AppMetrics},
	}
}

// Decide evaluates path against s. While the session is unresolved nothing
// redirects; a decision made before resolution would bounce a signed-in user
// to the login page.
func (g Guard) Decide(path string, s sdk.Session) Decision {
	if s.Loading {
		return Decision{Action: ActionLoading}
	}
	path = cleanPath(path)
	if g.isPublic(path) {
		return Decision{Action: ActionRender}
	}
	signedIn := s.Identity != nil
	if g.isEntryPoint(path) {
		if signedIn {
			return Decision{Action: ActionRedirect, Target: g.Home()}
		}
		return Decision{Action: ActionRender}
	}
	if !signedIn {
		return Decision{Action: ActionRedirect, Target: g.Login()}
	}
	return Decision{Action: ActionRender}
}

// Login is the sign-in path.
func (g Guard) Login() string {
	if g.LoginPath == "" {
		return routes.AppLogin
	}
	return g.LoginPath
}

// Signup is the sign-up path.
func (g Guard) Signup() string {
	if g.SignupPath == "" {
		return routes.AppSignup
	}
	return g.SignupPath
}

// Home is where signed-in users land.
func (g Guard) Home() string {
	if g.HomePath == "" {
		return routes.AppHome
	}
	return g.HomePath
}

func (g Guard) isEntryPoint(path string) bool {
	return path == cleanPath(g.Login()) || path == cleanPath(g.Signup())
}

func (g Guard) isPublic(path string) bool {
	for _, p := range g.Public {
		if path == cleanPath(p) {
			return true
		}
	}
	return false
}

func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
