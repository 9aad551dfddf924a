package pdf

import (
	"context"
	"io"
)

// TicketReceipt is everything printed on a ticket receipt. Amounts are
// preformatted by the caller.
type TicketReceipt struct {
	TicketID   string
	EventTitle string
	EventStart string
	ArtistName string
	BuyerName  string
	BuyerEmail string
	Price      string
	PaymentID  string
	IssuedAt   string
	IsTest     bool
}

type Provider interface {
	GenerateTicketReceipt(ctx context.Context, data TicketReceipt) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
