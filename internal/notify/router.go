package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kudos-league/kudos-client/internal/domain"
)

// DefaultDismissAfter is how long a toast stays up unless replaced.
const DefaultDismissAfter = 5 * time.Second

// Toast is a transient alert raised for an out-of-band event.
type Toast struct {
	ID        uuid.UUID
	Type      domain.NotificationType
	Text      string
	PostID    *int64
	ChannelID *int64
	CreatedAt time.Time
}

// ChannelPreviews is the registry surface the router keeps fresh.
type ChannelPreviews interface {
	IsActive(channelID int64) bool
	UpdateLastMessage(channelID int64, msg domain.Message)
}

// MessageSink receives a notification's message when its channel is open.
type MessageSink interface {
	Append(msg domain.Message) bool
}

// Router handles out-of-band events independently of the open channel:
// channel previews, the active message list, and transient toasts.
type Router struct {
	channels ChannelPreviews
	store    MessageSink

	mu           sync.Mutex
	current      *Toast
	dismissTimer *time.Timer
	dismissAfter time.Duration
	onToast      func(Toast)
}

func NewRouter(channels ChannelPreviews, store MessageSink) *Router {
	return &Router{
		channels:     channels,
		store:        store,
		dismissAfter: DefaultDismissAfter,
	}
}

// SetDismissAfter overrides the toast lifetime.
func (r *Router) SetDismissAfter(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissAfter = d
}

// SetOnToast registers a callback fired whenever a toast is raised (optional
// dependency).
func (r *Router) SetOnToast(fn func(Toast)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onToast = fn
}

// Handle routes one notification payload.
func (r *Router) Handle(p domain.NotificationPayload) {
	switch p.Type {
	case domain.NotificationDirectMessage:
		r.handleDirectMessage(p)

	case domain.NotificationPostReply:
		// No channel-list effect; only a toast routing to the post.
		r.show(Toast{
			Type:   domain.NotificationPostReply,
			Text:   "New reply on your post",
			PostID: p.PostID,
		})

	default:
		log.Printf("notify: unknown notification type %q", p.Type)
	}
}

func (r *Router) handleDirectMessage(p domain.NotificationPayload) {
	if p.Message == nil {
		log.Printf("notify: direct-message notification without message, dropping")
		return
	}

	channelID, ok := notificationChannel(p)
	if !ok {
		log.Printf("notify: direct-message notification without channel id, dropping")
		return
	}

	r.channels.UpdateLastMessage(channelID, *p.Message)

	if r.channels.IsActive(channelID) {
		// The conversation is already open: merge the message (deduplicated
		// by id) and skip the toast.
		r.store.Append(*p.Message)
		return
	}

	r.show(Toast{
		Type:      domain.NotificationDirectMessage,
		Text:      p.Message.Content,
		ChannelID: &channelID,
	})
}

// show replaces the current toast and restarts the auto-dismiss clock.
func (r *Router) show(t Toast) {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()

	r.mu.Lock()
	if r.dismissTimer != nil {
		r.dismissTimer.Stop()
	}
	r.current = &t
	id := t.ID
	r.dismissTimer = time.AfterFunc(r.dismissAfter, func() {
		r.clear(id)
	})
	onToast := r.onToast
	r.mu.Unlock()

	if onToast != nil {
		onToast(t)
	}
}

// clear removes the toast only if it is still the one the timer was armed
// for; a newer toast must not be dismissed by an older timer.
func (r *Router) clear(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.ID == id {
		r.current = nil
	}
}

// Current returns the toast on display, nil when none.
func (r *Router) Current() *Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	t := *r.current
	return &t
}

// Dismiss clears the toast manually.
func (r *Router) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dismissTimer != nil {
		r.dismissTimer.Stop()
	}
	r.current = nil
}

func notificationChannel(p domain.NotificationPayload) (int64, bool) {
	if p.ChannelID != nil {
		return *p.ChannelID, true
	}
	if p.Message != nil && p.Message.ChannelID != nil {
		return *p.Message.ChannelID, true
	}
	return 0, false
}
