package adapters_test

import (
	"errors"
	"testing"

	"github.com/smallbiznis/cloudstage/internal/config"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/cashfree"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/razorpay"
	"github.com/smallbiznis/cloudstage/internal/payment/domain"
)

func TestRegistryResolvesKnownProviders(t *testing.T) {
	registry := adapters.NewRegistry(cashfree.NewFactory(), razorpay.NewFactory(), nil)
	if !registry.ProviderExists(" Cashfree ") || !registry.ProviderExists("razorpay") {
		t.Fatalf("expected both providers to be registered")
	}
	if registry.ProviderExists("stripe") {
		t.Fatalf("stripe should not be registered")
	}

	cfg := config.PaymentsConfig{
		Cashfree: config.CashfreeConfig{WebhookSecret: "cf_secret"},
		Razorpay: config.RazorpayConfig{WebhookSecret: "rzp_secret"},
	}
	for _, provider := range []string{"cashfree", "razorpay"} {
		if _, err := registry.NewAdapter(provider, adapters.ConfigFor(provider, cfg, nil)); err != nil {
			t.Fatalf("new %s adapter: %v", provider, err)
		}
	}

	if _, err := registry.NewAdapter("paypal", domain.AdapterConfig{}); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
	var nilRegistry *adapters.Registry
	if _, err := nilRegistry.NewAdapter("cashfree", domain.AdapterConfig{}); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound from nil registry, got %v", err)
	}
}
