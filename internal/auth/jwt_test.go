package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-test-key"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("user-123", "amy@campus.edu", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID: got %q", claims.UserID)
	}
	if claims.Email != "amy@campus.edu" {
		t.Errorf("Email: got %q", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("Role: got %q", claims.Role)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("lifetime: got %s, want 1h", got)
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	token, err := GenerateToken("u", "u@campus.edu", "user", testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTokenTTL {
		t.Errorf("lifetime: got %s, want %s", got, DefaultTokenTTL)
	}
}

func TestParseToken_InvalidSecret(t *testing.T) {
	token, err := GenerateToken("user-abc", "a@campus.edu", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token, "wrong-secret"); err == nil {
		t.Fatal("expected error for invalid secret, got nil")
	}
}

func TestParseToken_Expired(t *testing.T) {
	claims := Claims{
		UserID: "user-old",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = ParseToken(token, testSecret)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_NoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "mallory", Role: "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	if _, err := ParseToken("not.a.real.token", testSecret); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
