package domain

import "time"

type Artist struct {
	ID               string     `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	Email            string     `json:"email"`
	IsPremium        bool       `gorm:"not null;default:false" json:"is_premium"`
	PremiumPaymentID *string    `json:"premium_payment_id,omitempty"`
	PremiumSince     *time.Time `json:"premium_since,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

func (Artist) TableName() string { return "artists" }
