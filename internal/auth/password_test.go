package auth

import (
	"strings"
	"testing"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4 — the
// minimum the library allows, so tests run in milliseconds instead of
// ~250ms each.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(4)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt generates a random salt each time, so two hashes for the
	// same password must differ — otherwise rainbow tables would work.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt silently truncates past 72 bytes; we reject instead.
	_, err := ps.Hash(strings.Repeat("x", 73))
	if err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() rejected the correct password: %v", err)
	}
	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() accepted a wrong password")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	if err := ps.Verify("not-a-bcrypt-hash", "anything"); err == nil {
		t.Error("Verify() accepted a malformed hash")
	}
}
