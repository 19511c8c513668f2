// Package guard decides whether a navigation target may be shown for
// the current session state, and remembers where an anonymous visitor
// was headed so sign-in can return them there.
package guard

import (
	"strings"
	"sync"

	taskverse "github.com/taskverse/client-go"
)

// Action is the outcome of a navigation check.
type Action int

const (
	// Render shows the requested surface.
	Render Action = iota
	// Loading holds rendering until the session state is known. A
	// premature redirect here would bounce signed-in users to the
	// sign-in screen on every reload.
	Loading
	// Redirect sends the visitor to Decision.Target.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the guard's answer for one navigation.
type Decision struct {
	Action Action
	Target string
}

// DefaultProtectedPaths are the surfaces that require a session.
func DefaultProtectedPaths() []string {
	return []string{
		"/add-job",
		"/update-job",
		"/job",
		"/my-added-jobs",
		"/my-accepted-tasks",
		"/profile",
	}
}

const (
	defaultSignInPath = "/auth/login"
	defaultLanding    = "/"
)

// Guard evaluates navigations against the protected path set.
type Guard struct {
	protected  []string
	signInPath string
	landing    string
	logger     taskverse.Logger

	mu      sync.Mutex
	pending string
}

// Option customizes guard construction.
type Option func(*Guard)

// WithProtectedPaths replaces the default protected path prefixes.
func WithProtectedPaths(paths ...string) Option {
	return func(g *Guard) {
		if len(paths) > 0 {
			g.protected = paths
		}
	}
}

// WithSignInPath overrides where anonymous visitors are sent.
func WithSignInPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.signInPath = path
		}
	}
}

// WithLanding overrides the fallback destination after sign-in.
func WithLanding(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.landing = path
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger taskverse.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a guard with the default protected path set.
func New(opts ...Option) *Guard {
	g := &Guard{
		protected:  DefaultProtectedPaths(),
		signInPath: defaultSignInPath,
		landing:    defaultLanding,
		logger:     taskverse.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Resolve decides what happens for a navigation to path under the
// given session state. An anonymous visit to a protected path records
// it as the pending target before redirecting to sign-in.
func (g *Guard) Resolve(state taskverse.SessionState, path string) Decision {
	if !g.isProtected(path) {
		return Decision{Action: Render}
	}

	switch state {
	case taskverse.StateAuthenticated:
		return Decision{Action: Render}
	case taskverse.StateUnknown:
		return Decision{Action: Loading}
	default:
		g.mu.Lock()
		g.pending = path
		g.mu.Unlock()

		g.logger.Debug("redirecting anonymous visit to %s, remembering target", path)
		return Decision{Action: Redirect, Target: g.signInPath}
	}
}

// ConsumePending returns the navigation target recorded by the last
// rejected visit and clears it, so a later unrelated sign-in does not
// resurrect a stale destination. Falls back to the landing path.
func (g *Guard) ConsumePending() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := g.pending
	g.pending = ""
	if target == "" {
		return g.landing
	}
	return target
}

// isProtected matches on whole path segments: "/job" protects
// "/job/123" but not "/jobless".
func (g *Guard) isProtected(path string) bool {
	for _, prefix := range g.protected {
		if path == prefix {
			return true
		}
		if strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
