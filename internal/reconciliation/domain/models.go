package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Entry records a verified payment whose fulfillment failed. Request holds
// the fulfillment request as JSON; Payload holds the raw webhook body.
type Entry struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider   string         `gorm:"type:text;not null" json:"provider"`
	PaymentID  string         `gorm:"type:text;not null;index" json:"payment_id"`
	Reason     string         `gorm:"type:text;not null" json:"reason"`
	Request    datatypes.JSON `gorm:"type:jsonb;not null" json:"request"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	Status     Status         `gorm:"type:text;not null;default:pending" json:"status"`
	Attempts   int            `gorm:"not null;default:0" json:"attempts"`
	LastError  *string        `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}

func (Entry) TableName() string { return "payment_reconciliations" }
