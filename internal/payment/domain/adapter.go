package domain

import (
	"context"
	"net/http"
)

// PaymentAdapter hides one provider's wire format. Verify must run on the
// exact request bytes before Parse.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	// Parse returns ErrEventIgnored for events that are not a successful payment.
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
	CreateOrder(ctx context.Context, req OrderRequest) (OrderHandle, error)
}

type AdapterConfig struct {
	Provider   string
	Config     map[string]any
	HTTPClient *http.Client
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(config AdapterConfig) (PaymentAdapter, error)
}
