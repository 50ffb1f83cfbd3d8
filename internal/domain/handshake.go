package domain

import (
	"time"
)

type HandshakeStatus string

const (
	HandshakeStatusNew       HandshakeStatus = "new"
	HandshakeStatusAccepted  HandshakeStatus = "accepted"
	HandshakeStatusCompleted HandshakeStatus = "completed"
)

// Handshake is one user's offer to exchange a specific post. SenderID is the
// responding user, never the post owner.
type Handshake struct {
	ID         int64           `json:"id"`
	PostID     int64           `json:"postID"`
	SenderID   int64           `json:"senderID"`
	ReceiverID *int64          `json:"receiverID,omitempty"`
	Status     HandshakeStatus `json:"status"`
	Post       *Post           `json:"post,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Active reports whether the handshake still blocks a new offer on its post.
func (h *Handshake) Active() bool {
	return h.Status == HandshakeStatusNew || h.Status == HandshakeStatusAccepted
}

// ResolveRoles determines who gives and who receives the item:
// on a gift post the owner gives and the responder receives,
// on a request post the responder gives and the owner receives.
func (h *Handshake) ResolveRoles(post *Post) (gifterID, receiverID int64) {
	if post.Type == PostTypeGift {
		return post.SenderID, h.SenderID
	}
	return h.SenderID, post.SenderID
}
