package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestIssueAndParseRoundtrip(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, expiresAt, err := svc.Issue("user-42", RoleSupervisor, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != string(RoleSupervisor) {
		t.Fatalf("unexpected role claim: %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	svc, _ := NewTokenService("test-secret")
	if _, _, err := svc.Issue("", RoleDriver, time.Minute); err == nil {
		t.Fatal("expected error for empty userID")
	}
	if _, _, err := svc.Issue("user-1", RoleDriver, 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestParseExpiredTokenIsDistinct(t *testing.T) {
	now := time.Now()
	issued, _ := NewTokenService("test-secret", WithClock(func() time.Time { return now.Add(-2 * time.Hour) }))
	token, _, err := issued.Issue("user-1", RoleDriver, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Expired one second ago is still expired.
	svc, _ := NewTokenService("test-secret", WithClock(func() time.Time { return now.Add(-59*time.Minute - 59*time.Second) }))
	if _, err := svc.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if _, err := svc.Parse(token); errors.Is(err, ErrInvalidToken) {
		t.Fatal("expired token must not report ErrInvalidToken")
	}
}

func TestParseRejectsRotatedSecret(t *testing.T) {
	stale, _ := NewTokenService("old-secret")
	token, _, err := stale.Issue("user-1", RoleDriver, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// A token signed with a rotated secret is invalid, never expired.
	svc, _ := NewTokenService("new-secret")
	if _, err := svc.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	svc, _ := NewTokenService("test-secret")
	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := svc.Parse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseRoleSet(t *testing.T) {
	for raw, want := range map[string]Role{
		"admin":       RoleAdmin,
		" Supervisor": RoleSupervisor,
		"DRIVER":      RoleDriver,
	} {
		got, ok := ParseRole(raw)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q)=%q ok=%v, want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("expected superuser to be rejected")
	}
}
