package otel

import (
	"context"
	"testing"
)

func TestNewProvidersEmptyEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(context.Background(), endpoint, "test-service", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatal("no-op providers should still be non-nil")
		}
		if err := providers.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}
}

func TestNewProvidersMissingHost(t *testing.T) {
	if _, err := NewProviders(context.Background(), "http://", "test-service", false); err == nil {
		t.Fatal("endpoint without host should return error")
	}
}

func TestNewProvidersEndpointForms(t *testing.T) {
	// Exporters dial lazily, so construction succeeds without a collector.
	for _, endpoint := range []string{
		"localhost:4317",
		"http://localhost:4317",
		"https://collector:4317",
		"https://collector:4317/v1/traces",
	} {
		providers, err := NewProviders(context.Background(), endpoint, "test-service", true)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = providers.Shutdown(ctx)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Errorf("first shutdown: %v", err)
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	// Must not panic; global propagation is otel SDK behavior.
	providers.SetGlobal()
	(&Providers{}).SetGlobal()
}
