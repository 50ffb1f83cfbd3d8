package domain

type NotificationType string

const (
	NotificationDirectMessage NotificationType = "direct-message"
	NotificationPostReply     NotificationType = "post-reply"
)

// NotificationPayload is an out-of-band event delivered on the realtime
// stream, independent of which channel is currently open.
type NotificationPayload struct {
	Type      NotificationType `json:"type"`
	Message   *Message         `json:"message,omitempty"`
	PostID    *int64           `json:"postID,omitempty"`
	ChannelID *int64           `json:"channelID,omitempty"`
}
