package domain

import "time"

// DeviceToken is the push registration for a user; one token per user.
type DeviceToken struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	Token     string    `gorm:"not null" json:"token"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DeviceToken) TableName() string { return "device_tokens" }

// Result summarizes one fan-out. Successes and failures are per token.
type Result struct {
	EventID      string `json:"event_id"`
	Followers    int    `json:"followers"`
	Tokens       int    `json:"tokens"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}
