package realtime

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypeChannelJoin  = "channel.join"
	EventTypeChannelLeave = "channel.leave"
	EventTypeMessageSend  = "message.send"
	EventTypePing         = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew     = "message.new"
	EventTypeMessageEdited  = "message.edited"
	EventTypeMessageDeleted = "message.deleted"
	EventTypeNotification   = "notification"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// Event is the base envelope for all realtime traffic.
type Event struct {
	Type      string          `json:"type"`
	ChannelID *int64          `json:"channelID,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

// SendPayload carries an outbound message. Exactly one of ChannelID
// (public channels) or ReceiverID (DMs) is set.
type SendPayload struct {
	ChannelID  *int64 `json:"channelID,omitempty"`
	ReceiverID *int64 `json:"receiverID,omitempty"`
	Content    string `json:"content"`
	Nonce      string `json:"nonce,omitempty"`
}

type ChannelPayload struct {
	ChannelID int64 `json:"channelID"`
}

// --- Server → Client payloads ---

type MessageDeletedPayload struct {
	ID        int64 `json:"id"`
	ChannelID int64 `json:"channelID"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates an event envelope with the current timestamp.
func NewEvent(eventType string, channelID *int64, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		ChannelID: channelID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
