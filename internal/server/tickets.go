package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	eventdomain "github.com/smallbiznis/cloudstage/internal/event/domain"
	"github.com/smallbiznis/cloudstage/internal/providers/pdf"
	ticketdomain "github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"go.uber.org/zap"
)

const receiptTimeLayout = "02 Jan 2006 15:04 MST"

type createTestTicketRequest struct {
	UserID  string             `json:"userId"`
	EventID string             `json:"eventId"`
	Price   float64            `json:"price"`
	Buyer   ticketdomain.Buyer `json:"buyer"`
}

// CreateTestTicket issues a ticket without a payment. It is only routed
// when PAYMENTS_TEST_MODE is on.
func (s *Server) CreateTestTicket(c *gin.Context) {
	var req createTestTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Price < 0 {
		AbortWithError(c, newValidationError("price", "invalid_price", "price must not be negative"))
		return
	}

	ticket, created, err := s.tickets.CreateTicket(c.Request.Context(), ticketdomain.CreateTicketRequest{
		UserID:    req.UserID,
		EventID:   req.EventID,
		PricePaid: req.Price,
		Buyer:     req.Buyer,
		PaymentID: "test_" + ulid.Make().String(),
		IsTest:    true,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": ticket, "created": created})
}

func (s *Server) GetTicketReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	ticket, err := s.tickets.GetTicket(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	receipt := pdf.TicketReceipt{
		TicketID:   ticket.ID.String(),
		EventTitle: ticket.EventID,
		BuyerName:  ticket.BuyerName,
		BuyerEmail: ticket.BuyerEmail,
		Price:      formatAmount(ticket.PricePaid, s.cfg.Payments.Currency),
		PaymentID:  ticket.PaymentID,
		IssuedAt:   ticket.CreatedAt.UTC().Format(receiptTimeLayout),
		IsTest:     ticket.IsTest,
	}

	event, err := s.events.Get(ctx, ticket.EventID)
	switch {
	case err == nil:
		receipt.EventTitle = event.Title
		if event.StartsAt != nil {
			receipt.EventStart = event.StartsAt.UTC().Format(receiptTimeLayout)
		}
		if strings.TrimSpace(event.Currency) != "" {
			receipt.Price = formatAmount(ticket.PricePaid, event.Currency)
		}
		receipt.ArtistName = s.artistName(c, event.ArtistID)
	case errors.Is(err, eventdomain.ErrNotFound):
	default:
		AbortWithError(c, err)
		return
	}

	reader, err := s.receipts.GenerateTicketReceipt(ctx, receipt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("ticket-%s.pdf", ticket.ID.String())
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, map[string]string{
		"Content-Disposition": "attachment; filename=\"" + filename + "\"",
	})
}

// artistName is best effort; a receipt still renders without it.
func (s *Server) artistName(c *gin.Context, artistID string) string {
	artist, err := s.artists.Get(c.Request.Context(), artistID)
	if err != nil {
		if !errors.Is(err, artistdomain.ErrNotFound) && !errors.Is(err, artistdomain.ErrInvalidID) {
			s.log.Warn("receipt artist lookup failed", zap.String("artist_id", artistID), zap.Error(err))
		}
		return ""
	}
	return artist.Name
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(strings.TrimSpace(currency)))
}
