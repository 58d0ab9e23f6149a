package utils

import (
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Run("signed token parses back to the same claims", func(t *testing.T) {
		token, err := SignJWT("secret", "uid-9", "user@example.com", "decorator", 30)
		if err != nil {
			t.Fatalf("SignJWT: %v", err)
		}

		claims, err := ParseJWT("secret", token)
		if err != nil {
			t.Fatalf("ParseJWT: %v", err)
		}

		if claims.UserID != "uid-9" {
			t.Errorf("UserID = %q", claims.UserID)
		}
		if claims.Email != "user@example.com" {
			t.Errorf("Email = %q", claims.Email)
		}
		if claims.Role != "decorator" {
			t.Errorf("Role = %q", claims.Role)
		}
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		token, err := SignJWT("secret", "uid-9", "user@example.com", "user", 30)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseJWT("other", token); err == nil {
			t.Error("ParseJWT accepted a token signed with another secret")
		}
	})

	t.Run("expired token fails", func(t *testing.T) {
		token, err := SignJWT("secret", "uid-9", "user@example.com", "user", -1)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseJWT("secret", token); err == nil {
			t.Error("ParseJWT accepted an expired token")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Error("CheckPassword accepted a wrong password")
	}
}
