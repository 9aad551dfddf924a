package fulfillment

import (
	"context"
	"errors"
	"testing"

	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	ticketdomain "github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"go.uber.org/zap"
)

type fakeTickets struct {
	requests []ticketdomain.CreateTicketRequest
	err      error
}

func (f *fakeTickets) CreateTicket(_ context.Context, req ticketdomain.CreateTicketRequest) (ticketdomain.Ticket, bool, error) {
	if f.err != nil {
		return ticketdomain.Ticket{}, false, f.err
	}
	f.requests = append(f.requests, req)
	return ticketdomain.Ticket{ID: 42, UserID: req.UserID, EventID: req.EventID, PaymentID: req.PaymentID}, len(f.requests) == 1, nil
}

func (f *fakeTickets) GetTicket(context.Context, string) (ticketdomain.Ticket, error) {
	return ticketdomain.Ticket{}, ticketdomain.ErrNotFound
}

func (f *fakeTickets) ListByUser(context.Context, string) ([]ticketdomain.Ticket, error) {
	return nil, nil
}

type premiumCall struct {
	artistID  string
	paymentID string
}

type fakeArtists struct {
	calls []premiumCall
	err   error
}

func (f *fakeArtists) Get(context.Context, string) (artistdomain.Artist, error) {
	return artistdomain.Artist{}, artistdomain.ErrNotFound
}

func (f *fakeArtists) SetPremium(_ context.Context, artistID, paymentID string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, premiumCall{artistID: artistID, paymentID: paymentID})
	return nil
}

func (f *fakeArtists) ListFollowerIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

func newDispatcher(tickets *fakeTickets, artists *fakeArtists) *Dispatcher {
	return NewDispatcher(Params{Log: zap.NewNop(), Tickets: tickets, Artists: artists})
}

func TestDispatchIssuesTicket(t *testing.T) {
	tickets, artists := &fakeTickets{}, &fakeArtists{}
	d := newDispatcher(tickets, artists)

	outcome, err := d.Dispatch(context.Background(), Request{
		Provider:  paymentdomain.ProviderCashfree,
		PaymentID: "cf_pay_1",
		Amount:    299,
		Metadata:  paymentdomain.Metadata{EventID: " event_1 ", UserID: "user_1"},
		Buyer:     paymentdomain.Buyer{CustomerID: "user_1", Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome != OutcomeTicketIssued {
		t.Fatalf("expected ticket outcome, got %s", outcome)
	}
	if len(tickets.requests) != 1 || len(artists.calls) != 0 {
		t.Fatalf("expected one ticket and no premium, got %d/%d", len(tickets.requests), len(artists.calls))
	}
	got := tickets.requests[0]
	if got.EventID != "event_1" || got.UserID != "user_1" || got.PaymentID != "cf_pay_1" || got.PricePaid != 299 || got.IsTest {
		t.Fatalf("unexpected ticket request %+v", got)
	}
	if got.Buyer.Email != "asha@example.com" {
		t.Fatalf("buyer not forwarded: %+v", got.Buyer)
	}
}

func TestDispatchGrantsPremium(t *testing.T) {
	tickets, artists := &fakeTickets{}, &fakeArtists{}
	d := newDispatcher(tickets, artists)

	outcome, err := d.Dispatch(context.Background(), Request{
		Provider:  paymentdomain.ProviderCashfree,
		PaymentID: "cf_pay_2",
		Metadata:  paymentdomain.Metadata{PlanName: "Pro", UserID: "artist_meta"},
		Buyer:     paymentdomain.Buyer{CustomerID: "artist_1"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome != OutcomePremiumGranted {
		t.Fatalf("expected premium outcome, got %s", outcome)
	}
	if len(artists.calls) != 1 || artists.calls[0] != (premiumCall{artistID: "artist_1", paymentID: "cf_pay_2"}) {
		t.Fatalf("unexpected premium calls %+v", artists.calls)
	}
	if len(tickets.requests) != 0 {
		t.Fatalf("premium must not create tickets")
	}
}

func TestDispatchPremiumFallsBackToMetadataUser(t *testing.T) {
	artists := &fakeArtists{}
	d := newDispatcher(&fakeTickets{}, artists)

	if _, err := d.Dispatch(context.Background(), Request{
		PaymentID: "pay_3",
		Metadata:  paymentdomain.Metadata{PlanName: "Pro", UserID: "artist_meta"},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(artists.calls) != 1 || artists.calls[0].artistID != "artist_meta" {
		t.Fatalf("expected fallback to metadata user, got %+v", artists.calls)
	}
}

func TestDispatchUnrecognizedMetadata(t *testing.T) {
	cases := map[string]paymentdomain.Metadata{
		"empty":           {},
		"event only":      {EventID: "event_1"},
		"user only":       {UserID: "user_1"},
		"plan with event": {PlanName: "Pro", EventID: "event_1"},
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			tickets, artists := &fakeTickets{}, &fakeArtists{}
			outcome, err := newDispatcher(tickets, artists).Dispatch(context.Background(), Request{PaymentID: "pay", Metadata: meta})
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if outcome != OutcomeUnrecognized {
				t.Fatalf("expected unrecognized, got %s", outcome)
			}
			if len(tickets.requests) != 0 || len(artists.calls) != 0 {
				t.Fatalf("unrecognized metadata must not mutate")
			}
		})
	}
}

func TestDispatchWrapsStoreFailures(t *testing.T) {
	d := newDispatcher(&fakeTickets{err: ticketdomain.ErrStoreWrite}, &fakeArtists{err: artistdomain.ErrNotFound})

	outcome, err := d.Dispatch(context.Background(), Request{Metadata: paymentdomain.Metadata{EventID: "e", UserID: "u"}})
	if !errors.Is(err, paymentdomain.ErrStoreWrite) || !errors.Is(err, ticketdomain.ErrStoreWrite) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}

	_, err = d.Dispatch(context.Background(), Request{Metadata: paymentdomain.Metadata{PlanName: "Pro", UserID: "a"}})
	if !errors.Is(err, paymentdomain.ErrStoreWrite) || !errors.Is(err, artistdomain.ErrNotFound) {
		t.Fatalf("expected wrapped artist error, got %v", err)
	}
}
