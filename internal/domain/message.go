package domain

import (
	"time"
)

type Message struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	AuthorID  int64      `json:"authorID"`
	Author    *User      `json:"author,omitempty"`
	ChannelID *int64     `json:"channelID,omitempty"`
	PostID    *int64     `json:"postID,omitempty"`
	ReplyToID *int64     `json:"replyToMessageID,omitempty"`
	Nonce     string     `json:"nonce,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the message has been soft-deleted.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// MessageGroup is a maximal run of consecutive messages by the same author,
// derived from the ordered message list purely for rendering consolidation.
type MessageGroup struct {
	AuthorID int64
	Author   *User
	Messages []Message
}
