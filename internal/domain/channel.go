package domain

type ChannelType string

const (
	ChannelTypeDM     ChannelType = "dm"
	ChannelTypePublic ChannelType = "public"
)

type Channel struct {
	ID          int64       `json:"id"`
	Type        ChannelType `json:"type"`
	Name        string      `json:"name,omitempty"`
	Users       []User      `json:"users,omitempty"`
	LastMessage *Message    `json:"lastMessage,omitempty"`
	// Derived client-side for DM channels
	OtherUser *User `json:"-"`
}

// OtherParticipant returns the DM participant that is not the given user.
func (c *Channel) OtherParticipant(currentUserID int64) *User {
	for i := range c.Users {
		if c.Users[i].ID != currentUserID {
			return &c.Users[i]
		}
	}
	return nil
}
