package cashfree

import (
	"bytes"
	"encoding/json"
	"strings"
)

type webhookEvent struct {
	Type            string           `json:"type"`
	EventTime       string           `json:"event_time"`
	Data            webhookData      `json:"data"`
	CustomerDetails *customerDetails `json:"customer_details"`
}

type webhookData struct {
	Order           webhookOrder     `json:"order"`
	Payment         webhookPayment   `json:"payment"`
	CustomerDetails *customerDetails `json:"customer_details"`
	OrderMeta       *orderMeta       `json:"order_meta"`
}

type webhookOrder struct {
	OrderID       string     `json:"order_id"`
	OrderAmount   float64    `json:"order_amount"`
	OrderCurrency string     `json:"order_currency"`
	OrderStatus   string     `json:"order_status"`
	OrderMeta     *orderMeta `json:"order_meta"`
}

type webhookPayment struct {
	CFPaymentID     flexString `json:"cf_payment_id"`
	PaymentStatus   string     `json:"payment_status"`
	PaymentAmount   float64    `json:"payment_amount"`
	PaymentCurrency string     `json:"payment_currency"`
}

// paid prefers the order status and falls back to the payment status when
// the order status is absent.
func (e webhookEvent) paid() bool {
	if status := strings.TrimSpace(e.Data.Order.OrderStatus); status != "" {
		return strings.EqualFold(status, orderStatusPaid)
	}
	return strings.EqualFold(strings.TrimSpace(e.Data.Payment.PaymentStatus), paymentStatusOK)
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
	EventID   string `json:"eventId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	PlanName  string `json:"planName,omitempty"`
}

type createOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type createOrderResponse struct {
	CFOrderID        flexString `json:"cf_order_id"`
	OrderID          string     `json:"order_id"`
	OrderStatus      string     `json:"order_status"`
	PaymentSessionID string     `json:"payment_session_id"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// flexString accepts a JSON string or number; Cashfree sends payment ids as
// either depending on API version.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*f = flexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = flexString(number.String())
	return nil
}
