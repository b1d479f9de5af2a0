package security

import (
	"testing"
	"time"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := GenerateAdminToken("acme", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := ValidateJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	projectID, role, ok := ProjectFromClaims(claims)
	if !ok {
		t.Fatal("expected claims to carry project id and role")
	}
	if projectID != "acme" {
		t.Errorf("projectID = %q, want %q", projectID, "acme")
	}
	if role != "admin" {
		t.Errorf("role = %q, want %q", role, "admin")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAdminToken("acme", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ValidateJWT(token, "other-secret"); err == nil {
		t.Error("expected validation to fail with the wrong secret")
	}
}

func TestValidateJWTRejectsExpiredToken(t *testing.T) {
	token, err := GenerateAdminToken("acme", "admin", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ValidateJWT(token, "test-secret"); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token", "test-secret"); err == nil {
		t.Error("expected validation to fail for malformed input")
	}
}

func TestProjectFromClaimsMissingFields(t *testing.T) {
	token, err := GenerateAdminToken("", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	claims, err := ValidateJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if _, _, ok := ProjectFromClaims(claims); ok {
		t.Error("claims without a project id should not resolve")
	}
}
