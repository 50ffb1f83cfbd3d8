package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kudos-league/kudos-client/internal/domain"
)

type CreateHandshakeInput struct {
	PostID     int64  `json:"postID"`
	ReceiverID *int64 `json:"receiverID,omitempty"`
}

type RewardOfferInput struct {
	PostID     int64   `json:"postID"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Kudos      float64 `json:"kudos"`
	ReceiverID int64   `json:"receiverID"`
}

type statusUpdate struct {
	Status domain.HandshakeStatus `json:"status"`
}

// CreateHandshake opens an exchange offer on a post.
func (c *Client) CreateHandshake(ctx context.Context, input CreateHandshakeInput) (*domain.Handshake, error) {
	var handshake domain.Handshake
	if err := c.do(ctx, http.MethodPost, "/handshakes", input, &handshake); err != nil {
		return nil, err
	}
	return &handshake, nil
}

// UpdateHandshakeStatus moves a handshake to the given status. The backend
// re-validates the transition; the caller guards it locally first.
func (c *Client) UpdateHandshakeStatus(ctx context.Context, id int64, status domain.HandshakeStatus) (*domain.Handshake, error) {
	var handshake domain.Handshake
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/handshakes/%d", id), statusUpdate{Status: status}, &handshake); err != nil {
		return nil, err
	}
	return &handshake, nil
}

// DeleteHandshake rescinds a pending handshake.
func (c *Client) DeleteHandshake(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/handshakes/%d", id), nil, nil)
}

// CreateRewardOffer awards kudos to the resolved gifter of a completed exchange.
func (c *Client) CreateRewardOffer(ctx context.Context, input RewardOfferInput) (*domain.RewardOffer, error) {
	var offer domain.RewardOffer
	if err := c.do(ctx, http.MethodPost, "/reward-offers", input, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}
