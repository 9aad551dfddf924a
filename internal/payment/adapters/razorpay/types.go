package razorpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type webhookEvent struct {
	Entity  string         `json:"entity"`
	Event   string         `json:"event"`
	Payload webhookPayload `json:"payload"`
}

type webhookPayload struct {
	Payment struct {
		Entity paymentEntity `json:"entity"`
	} `json:"payment"`
	Order struct {
		Entity orderEntity `json:"entity"`
	} `json:"order"`
}

type paymentEntity struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
	Notes      notes  `json:"notes"`
}

type orderEntity struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Notes      notes  `json:"notes"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Notes    notes  `json:"notes,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// notes is Razorpay's free-form key/value bag. Empty notes arrive as a JSON
// array and non-string values are stringified.
type notes map[string]string

func (n *notes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*n = notes{}
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(notes, len(raw))
	for key, value := range raw {
		switch cast := value.(type) {
		case nil:
		case string:
			out[key] = cast
		default:
			out[key] = fmt.Sprint(cast)
		}
	}
	*n = out
	return nil
}

func (n notes) compact() notes {
	out := notes{}
	for key, value := range n {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	return out
}
