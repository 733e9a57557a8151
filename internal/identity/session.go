// Package identity tracks who is signed in. A Session moves between SignedOut,
// Authenticating and SignedIn and tells its listeners about every transition
// into or out of SignedIn.
package identity

import (
	"context"
	"log"
	"sync"

	"alcyxob/fitness-tracker/internal/metrics"
)

// State of a session.
type State int

const (
	StateSignedOut State = iota
	StateAuthenticating
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateSignedIn:
		return "signedIn"
	default:
		return "signedOut"
	}
}

// Listener reacts to sign-in and sign-out.
type Listener interface {
	OnSignedIn(ctx context.Context, user User) error
	OnSignedOut()
}

// Session is the single identity of this process.
type Session struct {
	mu        sync.Mutex
	provider  Provider
	listeners []Listener
	state     State
	user      *User
}

// NewSession creates a signed-out session.
func NewSession(provider Provider, listeners ...Listener) *Session {
	return &Session{provider: provider, listeners: listeners}
}

// AddListener registers a listener for later transitions.
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SignIn authenticates credential. Signing in while signed in first signs the previous
// user out. There is no guard against concurrent sign-ins: the last one to succeed wins.
// A failed authentication leaves the session signed out.
func (s *Session) SignIn(ctx context.Context, credential string) (User, error) {
	if s.State() == StateSignedIn {
		s.SignOut()
	}

	s.mu.Lock()
	s.state = StateAuthenticating
	s.mu.Unlock()

	user, err := s.provider.Authenticate(ctx, credential)

	s.mu.Lock()
	if err != nil {
		s.state = StateSignedOut
		s.user = nil
		s.mu.Unlock()
		log.Printf("WARN: Sign-in failed: %v", err)
		return User{}, err
	}
	s.state = StateSignedIn
	s.user = &user
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	metrics.SignedIn.Set(1)
	log.Printf("INFO: Signed in as %s", user.ID)
	for _, l := range listeners {
		if err := l.OnSignedIn(ctx, user); err != nil {
			log.Printf("ERROR: Sign-in listener failed for %s: %v", user.ID, err)
		}
	}
	return user, nil
}

// SignOut ends the session. Signing out while signed out is a no-op.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.state == StateSignedOut {
		s.mu.Unlock()
		return
	}
	wasSignedIn := s.state == StateSignedIn
	s.state = StateSignedOut
	s.user = nil
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	metrics.SignedIn.Set(0)
	if !wasSignedIn {
		return
	}
	log.Println("INFO: Signed out")
	for _, l := range listeners {
		l.OnSignedOut()
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns the signed-in user, if any.
func (s *Session) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}
