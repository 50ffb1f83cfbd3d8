package domain

import (
	"time"
)

// RewardOffer is created when a handshake completes; it carries the kudos
// awarded to the resolved gifter.
type RewardOffer struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postID"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Kudos      float64   `json:"kudos"`
	ReceiverID int64     `json:"receiverID"`
	CreatedAt  time.Time `json:"createdAt"`
}
