package domain

import (
	"time"
)

type PostType string

const (
	PostTypeGift    PostType = "gift"
	PostTypeRequest PostType = "request"
)

type PostStatus string

const (
	PostStatusOpen   PostStatus = "open"
	PostStatusClosed PostStatus = "closed"
)

// Post is a gift or request item. SenderID is the single canonical owner
// reference; owner ambiguity is resolved at the API mapping boundary.
type Post struct {
	ID         int64       `json:"id"`
	Type       PostType    `json:"type"`
	SenderID   int64       `json:"senderID"`
	Status     PostStatus  `json:"status"`
	Title      string      `json:"title,omitempty"`
	Handshakes []Handshake `json:"handshakes,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (p *Post) Closed() bool {
	return p.Status == PostStatusClosed
}

// ActiveHandshakeBy returns the user's active handshake on this post, if any.
func (p *Post) ActiveHandshakeBy(userID int64) *Handshake {
	for i := range p.Handshakes {
		if p.Handshakes[i].SenderID == userID && p.Handshakes[i].Active() {
			return &p.Handshakes[i]
		}
	}
	return nil
}

// RemoveHandshake drops a handshake from the post's list by id.
func (p *Post) RemoveHandshake(handshakeID int64) {
	for i := range p.Handshakes {
		if p.Handshakes[i].ID == handshakeID {
			p.Handshakes = append(p.Handshakes[:i], p.Handshakes[i+1:]...)
			return
		}
	}
}
