package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Abcdefg1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Fatalf("unexpected hash encoding %q", hash)
	}

	ok, err := VerifyPassword(hash, "Abcdefg1")
	if err != nil || !ok {
		t.Fatalf("expected password to verify, got %v %v", ok, err)
	}
	ok, err = VerifyPassword(hash, "Abcdefg2")
	if err != nil || ok {
		t.Fatalf("expected wrong password to be rejected, got %v %v", ok, err)
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, _ := HashPassword("Abcdefg1")
	b, _ := HashPassword("Abcdefg1")
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
	} {
		if ok, err := VerifyPassword(encoded, "Abcdefg1"); err == nil || ok {
			t.Errorf("expected %q to be rejected as malformed, got %v %v", encoded, ok, err)
		}
	}
}
