package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "school-admin-auth" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "school-admin-api" {
		t.Errorf("JWTAudience = %q", cfg.JWTAudience)
	}
	if cfg.JWTAccessTTL != "24h" {
		t.Errorf("JWTAccessTTL = %q, want 24h", cfg.JWTAccessTTL)
	}
	if cfg.RefreshCredentialTTL != "720h" {
		t.Errorf("RefreshCredentialTTL = %q, want 720h", cfg.RefreshCredentialTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SecurityEventsTopic != "auth-security-events" {
		t.Errorf("SecurityEventsTopic = %q", cfg.SecurityEventsTopic)
	}
	if cfg.RedisAddr != "" || cfg.KafkaBrokers != "" || cfg.OTLPEndpoint != "" {
		t.Error("optional backends should default to disabled")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want custom-issuer", cfg.JWTIssuer)
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a JWT secret under 32 bytes")
	}
}

func TestLoadRejectsBcryptCostOutOfRange(t *testing.T) {
	for _, cost := range []string{"3", "32"} {
		os.Clearenv()
		os.Setenv("BCRYPT_COST", cost)
		if _, err := Load(); err == nil {
			t.Errorf("Load should reject BCRYPT_COST=%s", cost)
		}
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", RefreshCredentialTTL: "48h", SweepInterval: "10m"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v", got)
	}
	if got := cfg.RefreshTTL(); got != 48*time.Hour {
		t.Errorf("RefreshTTL = %v", got)
	}
	if got := cfg.SweepEvery(); got != 10*time.Minute {
		t.Errorf("SweepEvery = %v", got)
	}

	// Invalid values fall back to defaults.
	cfg = &Config{JWTAccessTTL: "nope", RefreshCredentialTTL: "-1h", SweepInterval: ""}
	if got := cfg.AccessTTL(); got != 24*time.Hour {
		t.Errorf("AccessTTL fallback = %v", got)
	}
	if got := cfg.RefreshTTL(); got != 720*time.Hour {
		t.Errorf("RefreshTTL fallback = %v", got)
	}
	if got := cfg.SweepEvery(); got != time.Hour {
		t.Errorf("SweepEvery fallback = %v", got)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: "localhost:9092, broker2:9092,,"}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
	if (&Config{}).KafkaBrokersList() != nil {
		t.Error("empty KafkaBrokers should yield nil")
	}
}
