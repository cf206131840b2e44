// Package session models the signed-in identity the client acts for. The
// identity itself comes from an external collaborator; this package only
// carries it to the components that need it.
package session

import (
	"strings"
	"sync"
)

// Session identifies the current user.
type Session struct {
	UserID string
	Loaded bool
}

// Ready reports whether the session finished loading.
func (s Session) Ready() bool { return s.Loaded }

// SignedIn reports whether mutating operations may run.
func (s Session) SignedIn() bool { return s.Loaded && s.UserID != "" }

// Provider yields the current session.
type Provider interface {
	Session() Session
}

// Static is a Provider with a fixed session.
type Static Session

// Session implements Provider.
func (s Static) Session() Session { return Session(s) }

// Holder is a mutable Provider. It starts unloaded.
type Holder struct {
	mu      sync.RWMutex
	current Session
	onEnd   []func()
}

// NewHolder returns an unloaded holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Session implements Provider.
func (h *Holder) Session() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// SignIn marks the session loaded for userID. An empty userID yields a
// loaded but anonymous session.
func (h *Holder) SignIn(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = Session{UserID: strings.TrimSpace(userID), Loaded: true}
}

// SignOut clears the user and runs the registered sign-out hooks.
func (h *Holder) SignOut() {
	h.mu.Lock()
	h.current = Session{Loaded: true}
	hooks := append([]func(){}, h.onEnd...)
	h.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

// OnSignOut registers fn to run after every SignOut.
func (h *Holder) OnSignOut(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEnd = append(h.onEnd, fn)
}
