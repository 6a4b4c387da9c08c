package authUtils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken("user-1", "citizen")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	userID, role, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if userID != "user-1" || role != "citizen" {
		t.Fatalf("ParseAccessToken() = (%q, %q), want (user-1, citizen)", userID, role)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	token, err := GenerateRefreshToken("user-2")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	userID, err := ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}
	if userID != "user-2" {
		t.Fatalf("ParseRefreshToken() = %q, want user-2", userID)
	}
}

func TestAccessTokenRejectedByRefreshSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	token, err := GenerateAccessToken("user-1", "citizen")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := ParseRefreshToken(token); err == nil {
		t.Fatal("expected ParseRefreshToken() to reject a token signed with the access secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "citizen",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	tokenString, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, _, err := ParseAccessToken(tokenString); err == nil {
		t.Fatal("expected ParseAccessToken() to fail for expired token")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken("user-1", "citizen")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	t.Setenv("JWT_SECRET", "another-secret")
	if _, _, err := ParseAccessToken(token); err == nil {
		t.Fatal("expected ParseAccessToken() to fail for a different secret")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, _, err := ParseAccessToken("not-a-token"); err == nil {
		t.Fatal("expected ParseAccessToken() to fail for garbage input")
	}
}
