package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kudos-league/kudos-client/internal/domain"
	"github.com/kudos-league/kudos-client/pkg/validator"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

var (
	ErrEmptyContent   = errors.New("message content must not be empty")
	ErrSendBufferFull = errors.New("send buffer is full")
)

// Store receives live message events for the active channel. The session is
// the sole writer into it for realtime traffic.
type Store interface {
	Append(msg domain.Message) bool
	Update(msg domain.Message) bool
	MarkDeleted(id int64, at time.Time) bool
}

// Channels answers which channel is open and keeps list previews fresh.
type Channels interface {
	IsActive(channelID int64) bool
	UpdateLastMessage(channelID int64, msg domain.Message)
}

// NotificationHandler receives out-of-band events regardless of the active
// channel.
type NotificationHandler interface {
	Handle(p domain.NotificationPayload)
}

// Conn is the minimal connection surface the session needs. Satisfied by the
// nhooyr wrapper and by fakes in tests.
type Conn interface {
	ReadJSON(ctx context.Context, v any) error
	WriteJSON(ctx context.Context, v any) error
	Ping(ctx context.Context) error
	Close() error
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadJSON(ctx context.Context, v any) error {
	return wsjson.Read(ctx, c.conn, v)
}

func (c *wsConn) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.conn, v)
}

func (c *wsConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// Session wraps the bidirectional realtime connection: channel membership,
// outbound sends, and routing of inbound events into the store and the
// notification handler.
type Session struct {
	conn     Conn
	store    Store
	channels Channels
	notify   NotificationHandler

	// joined tracks channel membership so re-entrant joins are no-ops.
	joined map[int64]struct{}
	mu     sync.RWMutex

	send chan *Event
}

// NewSession builds a session over an established connection.
func NewSession(conn Conn, store Store, channels Channels, notify NotificationHandler) *Session {
	return &Session{
		conn:     conn,
		store:    store,
		channels: channels,
		notify:   notify,
		joined:   make(map[int64]struct{}),
		send:     make(chan *Event, sendBufSize),
	}
}

// Dial connects to the realtime endpoint. Auth is a ?token=xxx query param
// (WebSocket handshakes can't send headers).
func Dial(ctx context.Context, wsURL, token string, store Store, channels Channels, notify NotificationHandler) (*Session, error) {
	conn, _, err := websocket.Dial(ctx, wsURL+"?token="+url.QueryEscape(token), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing realtime endpoint: %w", err)
	}
	return NewSession(&wsConn{conn: conn}, store, channels, notify), nil
}

// JoinChannel subscribes to a channel's live events. Joining a channel that
// is already joined is a no-op.
func (s *Session) JoinChannel(channelID int64) {
	s.mu.Lock()
	if _, ok := s.joined[channelID]; ok {
		s.mu.Unlock()
		return
	}
	s.joined[channelID] = struct{}{}
	s.mu.Unlock()

	if err := s.enqueue(EventTypeChannelJoin, ChannelPayload{ChannelID: channelID}); err != nil {
		log.Printf("ws: join event for channel %d dropped: %v", channelID, err)
	}
}

// LeaveChannel drops a channel subscription; leaving an unjoined channel is a
// no-op.
func (s *Session) LeaveChannel(channelID int64) {
	s.mu.Lock()
	if _, ok := s.joined[channelID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.joined, channelID)
	s.mu.Unlock()

	if err := s.enqueue(EventTypeChannelLeave, ChannelPayload{ChannelID: channelID}); err != nil {
		log.Printf("ws: leave event for channel %d dropped: %v", channelID, err)
	}
}

// IsJoined reports channel membership.
func (s *Session) IsJoined(channelID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joined[channelID]
	return ok
}

// SendChannelMessage sends to a public channel. Empty or whitespace-only
// content is rejected before any I/O; a full send buffer is reported as
// ErrSendBufferFull.
func (s *Session) SendChannelMessage(channelID int64, content string) error {
	if errs := validator.ValidateMessageContent(content); errs.HasErrors() {
		return ErrEmptyContent
	}
	return s.enqueue(EventTypeMessageSend, SendPayload{
		ChannelID: &channelID,
		Content:   content,
		Nonce:     uuid.NewString(),
	})
}

// SendDirectMessage sends to a DM recipient by user id.
func (s *Session) SendDirectMessage(receiverID int64, content string) error {
	if errs := validator.ValidateMessageContent(content); errs.HasErrors() {
		return ErrEmptyContent
	}
	return s.enqueue(EventTypeMessageSend, SendPayload{
		ReceiverID: &receiverID,
		Content:    content,
		Nonce:      uuid.NewString(),
	})
}

// Run drives the connection: a write pump in the background, the read loop in
// the caller's goroutine until the connection or context ends.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.conn.Close()

	go s.writePump(ctx)

	for {
		var event Event
		if err := s.conn.ReadJSON(ctx, &event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading event: %w", err)
		}
		s.handleEvent(&event)
	}
}

// writePump flushes the send queue and keeps the connection alive.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.WriteJSON(writeCtx, event)
			cancel()
			if err != nil {
				log.Printf("ws: write error: %v", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error: %v", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleEvent routes one inbound event. Message events reach the store only
// when their channel is the active one; notifications are routed
// unconditionally.
func (s *Session) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeMessageNew:
		msg, channelID, ok := s.decodeMessage(event)
		if !ok {
			return
		}
		s.channels.UpdateLastMessage(channelID, msg)
		if s.channels.IsActive(channelID) {
			s.store.Append(msg)
		}

	case EventTypeMessageEdited:
		msg, channelID, ok := s.decodeMessage(event)
		if !ok {
			return
		}
		if s.channels.IsActive(channelID) {
			s.store.Update(msg)
		}

	case EventTypeMessageDeleted:
		var p MessageDeletedPayload
		if err := unmarshalPayload(event, &p); err != nil {
			log.Printf("ws: invalid message.deleted payload: %v", err)
			return
		}
		if s.channels.IsActive(p.ChannelID) {
			s.store.MarkDeleted(p.ID, time.Now())
		}

	case EventTypeNotification:
		var p domain.NotificationPayload
		if err := unmarshalPayload(event, &p); err != nil {
			log.Printf("ws: invalid notification payload: %v", err)
			return
		}
		s.notify.Handle(p)

	case EventTypePong:
		// keepalive reply, nothing to do

	case EventTypeError:
		var p ErrorPayload
		if err := unmarshalPayload(event, &p); err == nil {
			log.Printf("ws: server error %s: %s", p.Code, p.Message)
		}

	default:
		log.Printf("ws: unknown event type %q", event.Type)
	}
}

func (s *Session) decodeMessage(event *Event) (domain.Message, int64, bool) {
	var msg domain.Message
	if err := unmarshalPayload(event, &msg); err != nil {
		log.Printf("ws: invalid %s payload: %v", event.Type, err)
		return domain.Message{}, 0, false
	}
	if event.ChannelID != nil {
		return msg, *event.ChannelID, true
	}
	if msg.ChannelID != nil {
		return msg, *msg.ChannelID, true
	}
	log.Printf("ws: %s event without channel id, dropping", event.Type)
	return domain.Message{}, 0, false
}

func (s *Session) enqueue(eventType string, payload any) error {
	event, err := NewEvent(eventType, nil, payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}
	select {
	case s.send <- event:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func unmarshalPayload(event *Event, v any) error {
	return json.Unmarshal(event.Payload, v)
}
