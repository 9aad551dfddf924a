package domain

import (
	"context"
	"errors"
)

type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateTicketRequest struct {
	UserID    string
	EventID   string
	PricePaid float64
	Buyer     Buyer
	PaymentID string
	IsTest    bool
}

type Service interface {
	// CreateTicket returns the existing ticket when the user already holds
	// one for the event; created reports whether a new row was written.
	CreateTicket(ctx context.Context, req CreateTicketRequest) (ticket Ticket, created bool, err error)
	GetTicket(ctx context.Context, id string) (Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]Ticket, error)
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidEvent   = errors.New("invalid_event")
	ErrInvalidPayment = errors.New("invalid_payment")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("ticket_not_found")
	ErrStoreWrite     = errors.New("ticket_store_write_failed")
)
