package domain

import (
	"testing"
	"time"
)

func TestEncodeDecodeRaw(t *testing.T) {
	secret, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	raw := EncodeRaw("cred-1", secret)

	id, sec, err := DecodeRaw(raw)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if id != "cred-1" || sec != secret {
		t.Errorf("DecodeRaw: got id=%q secret=%q", id, sec)
	}
}

func TestDecodeRaw_Malformed(t *testing.T) {
	for _, raw := range []string{"", "no-separator", ".secret-only", "id-only."} {
		if _, _, err := DecodeRaw(raw); err != ErrMalformedCredential {
			t.Errorf("DecodeRaw(%q): want ErrMalformedCredential, got %v", raw, err)
		}
	}
}

func TestNewSecret_Unique(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	b, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	if a == b {
		t.Error("secrets must be unique")
	}
}

func TestRefreshCredential_Expired(t *testing.T) {
	now := time.Now().UTC()
	c := &RefreshCredential{ExpiresAt: now.Add(time.Hour)}
	if c.Expired(now) {
		t.Error("credential expiring in an hour should not be expired")
	}
	if !c.Expired(now.Add(2 * time.Hour)) {
		t.Error("credential past expiry should be expired")
	}
	if !c.Expired(c.ExpiresAt) {
		t.Error("credential at exact expiry instant should be expired")
	}
}
