package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingListener struct {
	signedIn  []User
	signedOut int
}

func (l *recordingListener) OnSignedIn(ctx context.Context, user User) error {
	l.signedIn = append(l.signedIn, user)
	return nil
}

func (l *recordingListener) OnSignedOut() {
	l.signedOut++
}

func TestTokenIssueVerify(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour)

	token, err := tokens.Issue(User{ID: "user-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	user, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Failed to verify token: %v", err)
	}
	if user.ID != "user-1" || user.Email != "a@example.com" {
		t.Errorf("Expected user-1/a@example.com, got %+v", user)
	}

	other := NewTokenService("other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for foreign token, got %v", err)
	}
	if _, err := tokens.Verify("not-a-token"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for garbage, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Nanosecond)
	token, err := tokens.Issue(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected expired token to be rejected, got %v", err)
	}
}

func TestSessionTransitions(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour)
	listener := &recordingListener{}
	session := NewSession(tokens, listener)

	if session.State() != StateSignedOut {
		t.Fatalf("Expected new session to be signed out, got %s", session.State())
	}

	if _, err := session.SignIn(context.Background(), "bad"); err == nil {
		t.Fatal("Expected sign-in with bad credential to fail")
	}
	if session.State() != StateSignedOut || len(listener.signedIn) != 0 {
		t.Errorf("Expected failed sign-in to stay signed out without callbacks")
	}

	first, _ := tokens.Issue(User{ID: "u1"})
	if _, err := session.SignIn(context.Background(), first); err != nil {
		t.Fatalf("Failed to sign in: %v", err)
	}
	if user, ok := session.CurrentUser(); !ok || user.ID != "u1" {
		t.Errorf("Expected current user u1, got %+v", user)
	}

	second, _ := tokens.Issue(User{ID: "u2"})
	if _, err := session.SignIn(context.Background(), second); err != nil {
		t.Fatalf("Failed to sign in again: %v", err)
	}
	if listener.signedOut != 1 {
		t.Errorf("Expected re-sign-in to sign the previous user out once, got %d", listener.signedOut)
	}
	if len(listener.signedIn) != 2 || listener.signedIn[1].ID != "u2" {
		t.Errorf("Expected second sign-in for u2, got %+v", listener.signedIn)
	}

	session.SignOut()
	session.SignOut()
	if listener.signedOut != 2 {
		t.Errorf("Expected sign-out to notify once more, got %d", listener.signedOut)
	}
	if _, ok := session.CurrentUser(); ok {
		t.Error("Expected no current user after sign-out")
	}
}
