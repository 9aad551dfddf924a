package domain

import "strings"

const (
	ProviderCashfree = "cashfree"
	ProviderRazorpay = "razorpay"
)

// Metadata is the bag attached to a provider order at checkout and echoed
// back verbatim in the webhook.
type Metadata struct {
	EventID  string `json:"eventId,omitempty"`
	UserID   string `json:"userId,omitempty"`
	PlanName string `json:"planName,omitempty"`
}

func (m Metadata) Normalize() Metadata {
	return Metadata{
		EventID:  strings.TrimSpace(m.EventID),
		UserID:   strings.TrimSpace(m.UserID),
		PlanName: strings.TrimSpace(m.PlanName),
	}
}

type Buyer struct {
	CustomerID string `json:"customerId,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentEvent is a verified, successful payment parsed by an adapter.
// Amount is in major currency units.
type PaymentEvent struct {
	Provider   string
	EventType  string
	OrderID    string
	PaymentID  string
	Amount     float64
	Currency   string
	Metadata   Metadata
	Buyer      Buyer
	RawPayload []byte
}

// OrderRequest is what the checkout initiator asks a provider to create.
type OrderRequest struct {
	OrderID   string
	Amount    float64
	Currency  string
	Customer  Buyer
	Metadata  Metadata
	ReturnURL string
	NotifyURL string
}

// OrderHandle is returned to the browser to open the provider checkout.
type OrderHandle struct {
	Provider         string  `json:"provider"`
	OrderID          string  `json:"order_id"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	PaymentSessionID string  `json:"payment_session_id,omitempty"`
	KeyID            string  `json:"key_id,omitempty"`
	CallbackURL      string  `json:"callback_url,omitempty"`
}
