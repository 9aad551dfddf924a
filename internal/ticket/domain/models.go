package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Ticket grants one user access to one event. Tickets are never updated or
// deleted once issued.
type Ticket struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID     string       `gorm:"not null;uniqueIndex:tickets_user_event_unique" json:"user_id"`
	EventID    string       `gorm:"not null;uniqueIndex:tickets_user_event_unique" json:"event_id"`
	BuyerName  string       `json:"buyer_name"`
	BuyerEmail string       `json:"buyer_email"`
	BuyerPhone string       `json:"buyer_phone"`
	PricePaid  float64      `gorm:"not null" json:"price_paid"`
	PaymentID  string       `gorm:"not null;index" json:"payment_id"`
	IsTest     bool         `gorm:"not null;default:false" json:"is_test"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Ticket) TableName() string { return "tickets" }
