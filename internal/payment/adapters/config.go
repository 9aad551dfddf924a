package adapters

import (
	"net/http"

	"github.com/smallbiznis/cloudstage/internal/config"
	"github.com/smallbiznis/cloudstage/internal/payment/domain"
)

// ConfigFor maps the deployment payment settings onto the generic adapter
// config consumed by the provider factories.
func ConfigFor(provider string, cfg config.PaymentsConfig, client *http.Client) domain.AdapterConfig {
	values := map[string]any{}
	switch normalize(provider) {
	case domain.ProviderCashfree:
		values["client_id"] = cfg.Cashfree.ClientID
		values["client_secret"] = cfg.Cashfree.ClientSecret
		values["base_url"] = cfg.Cashfree.BaseURL
		values["api_version"] = cfg.Cashfree.APIVersion
		values["webhook_secret"] = cfg.Cashfree.WebhookSecret
	case domain.ProviderRazorpay:
		values["key_id"] = cfg.Razorpay.KeyID
		values["key_secret"] = cfg.Razorpay.KeySecret
		values["base_url"] = cfg.Razorpay.BaseURL
		values["webhook_secret"] = cfg.Razorpay.WebhookSecret
	}
	return domain.AdapterConfig{
		Provider:   normalize(provider),
		Config:     values,
		HTTPClient: client,
	}
}
