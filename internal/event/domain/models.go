package domain

import "time"

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

type BoostStatus string

const (
	BoostNone      BoostStatus = "none"
	BoostRequested BoostStatus = "requested"
	BoostActive    BoostStatus = "active"
)

type Event struct {
	ID               string           `gorm:"primaryKey" json:"id"`
	ArtistID         string           `gorm:"not null;index" json:"artist_id"`
	Title            string           `gorm:"not null" json:"title"`
	Description      string           `json:"description"`
	StreamURL        string           `gorm:"column:stream_url" json:"stream_url"`
	Price            float64          `json:"price"`
	Currency         string           `json:"currency"`
	StartsAt         *time.Time       `json:"starts_at,omitempty"`
	ModerationStatus ModerationStatus `gorm:"not null" json:"moderation_status"`
	BoostStatus      BoostStatus      `gorm:"not null" json:"boost_status"`
	RejectionReason  *string          `json:"rejection_reason,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	CreatedAt        time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// moderationTransitions lists the allowed target states per current state.
// Rejecting an approved event is a takedown.
var moderationTransitions = map[ModerationStatus][]ModerationStatus{
	ModerationPending:  {ModerationApproved, ModerationRejected},
	ModerationApproved: {ModerationRejected},
	ModerationRejected: {ModerationApproved},
}

func CanTransition(from, to ModerationStatus) bool {
	for _, allowed := range moderationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
