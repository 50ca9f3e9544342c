package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_LoginPasswords(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	// Shapes the registration policy accepts: at least ten characters with a
	// letter and a digit.
	passwords := []string{
		"hunter2hunter2",
		"September2026",
		"pässwörter123",
	}
	for _, pw := range passwords {
		hash, err := h.Hash([]byte(pw))
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Errorf("Hash(%q) = %q, want a bcrypt hash", pw, hash)
		}
		if err := h.Compare(hash, []byte(pw)); err != nil {
			t.Errorf("Compare(%q): %v", pw, err)
		}
		if err := h.Compare(hash, []byte(pw+"x")); err == nil {
			t.Errorf("Compare(%q+x) accepted a wrong password", pw)
		}
	}
}

func TestHasher_SaltedPerHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	first, err := h.Hash([]byte("September2026"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash([]byte("September2026"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password must differ")
	}
}

func TestHasher_CompareInvalidHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if err := h.Compare("not-a-bcrypt-hash", []byte("September2026")); err == nil {
		t.Error("Compare must reject a malformed stored hash")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, bcrypt.DefaultCost},
		{-3, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{12, 12},
		{99, bcrypt.MaxCost},
	}
	for _, c := range cases {
		if got := NewHasher(c.in).Cost; got != c.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", c.in, got, c.want)
		}
	}
}
