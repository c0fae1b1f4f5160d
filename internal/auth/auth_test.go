package auth

import (
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager(time.Hour)
	session := m.Issue("admin")
	if session.Token == "" {
		t.Fatalf("expected a token")
	}

	got, ok := m.Validate(session.Token)
	if !ok || got.Username != "admin" {
		t.Fatalf("expected valid session for admin, got %+v ok=%v", got, ok)
	}

	if _, ok := m.Validate("unknown-token"); ok {
		t.Fatalf("unknown token must not validate")
	}
}

func TestRevoke(t *testing.T) {
	m := NewManager(time.Hour)
	session := m.Issue("admin")
	m.Revoke(session.Token)
	if _, ok := m.Validate(session.Token); ok {
		t.Fatalf("revoked token must not validate")
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	m := NewManager(time.Hour)
	session := m.Issue("admin")
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if _, ok := m.Validate(session.Token); ok {
		t.Fatalf("expired token must not validate")
	}
}
