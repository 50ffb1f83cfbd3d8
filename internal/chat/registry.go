package chat

import (
	"context"
	"log"
	"sync"

	"github.com/kudos-league/kudos-client/internal/domain"
)

// Membership is the realtime join/leave surface the registry drives when the
// active channel changes.
type Membership interface {
	JoinChannel(channelID int64)
	LeaveChannel(channelID int64)
}

// HistoryFetcher loads a channel's message history from the backend.
type HistoryFetcher interface {
	ChannelMessages(ctx context.Context, channelID int64) ([]domain.Message, error)
}

// ChannelRegistry tracks the channels the client knows about and which one is
// active. Selecting a channel leaves the previous one, initiates a history
// fetch, joins the new one, and seeds the MessageStore once the fetch
// resolves, provided the channel is still the active one.
type ChannelRegistry struct {
	mu            sync.Mutex
	channels      map[int64]*domain.Channel
	order         []int64
	activeID      int64
	pending       *domain.Channel
	currentUserID int64
	authed        bool

	membership Membership
	history    HistoryFetcher
	store      *MessageStore
}

func NewChannelRegistry(history HistoryFetcher, store *MessageStore) *ChannelRegistry {
	return &ChannelRegistry{
		channels: make(map[int64]*domain.Channel),
		history:  history,
		store:    store,
	}
}

// SetMembership sets the realtime join/leave sink (optional dependency; the
// session is constructed after the registry).
func (r *ChannelRegistry) SetMembership(m Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.membership = m
}

// SetIdentity records the authenticated user and re-applies a channel
// selection that happened before login completed.
func (r *ChannelRegistry) SetIdentity(userID int64) {
	r.mu.Lock()
	r.currentUserID = userID
	r.authed = true
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending != nil {
		r.Select(context.Background(), *pending)
	}
}

// Upsert adds or refreshes a channel, preserving list order for known ids.
func (r *ChannelRegistry) Upsert(ch domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(ch)
}

func (r *ChannelRegistry) upsertLocked(ch domain.Channel) {
	if existing, ok := r.channels[ch.ID]; ok {
		if ch.LastMessage == nil {
			ch.LastMessage = existing.LastMessage
		}
		*existing = ch
		return
	}
	stored := ch
	r.channels[ch.ID] = &stored
	r.order = append(r.order, ch.ID)
}

// List returns the known channels of one scope. For the DM scope the other
// participant is derived by excluding the current user.
func (r *ChannelRegistry) List(scope domain.ChannelType) []domain.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Channel
	for _, id := range r.order {
		ch := r.channels[id]
		if ch.Type != scope {
			continue
		}
		view := *ch
		if scope == domain.ChannelTypeDM {
			view.OtherUser = view.OtherParticipant(r.currentUserID)
		}
		out = append(out, view)
	}
	return out
}

// FindDM looks up an existing DM channel with the given user, so the client
// never creates a duplicate conversation for the same pair.
func (r *ChannelRegistry) FindDM(otherUserID int64) (domain.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		ch := r.channels[id]
		if ch.Type != domain.ChannelTypeDM {
			continue
		}
		if other := ch.OtherParticipant(r.currentUserID); other != nil && other.ID == otherUserID {
			return *ch, true
		}
	}
	return domain.Channel{}, false
}

// ActiveID returns the id of the active channel, zero when none is open.
func (r *ChannelRegistry) ActiveID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// IsActive reports whether the given channel is the open one.
func (r *ChannelRegistry) IsActive(channelID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID == channelID
}

// UpdateLastMessage refreshes a channel's list preview. An unknown channel id
// is recorded as a stub DM entry so a brand-new conversation still shows up.
func (r *ChannelRegistry) UpdateLastMessage(channelID int64, msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		stub := domain.Channel{ID: channelID, Type: domain.ChannelTypeDM}
		if msg.Author != nil {
			stub.Users = []domain.User{*msg.Author}
		}
		r.channels[channelID] = &stub
		r.order = append(r.order, channelID)
		ch = &stub
	}
	ch.LastMessage = &msg
}

// Select makes ch the active channel. Selecting the already-active channel is
// a no-op; selecting before authentication is recorded and re-applied by
// SetIdentity. The previous channel is left before the new one is joined, and
// the history fetch is initiated before the join.
func (r *ChannelRegistry) Select(ctx context.Context, ch domain.Channel) {
	r.mu.Lock()
	if !r.authed {
		pending := ch
		r.pending = &pending
		r.mu.Unlock()
		log.Printf("registry: selection of channel %d pending authentication", ch.ID)
		return
	}
	if r.activeID == ch.ID {
		r.mu.Unlock()
		return
	}
	prev := r.activeID
	r.activeID = ch.ID
	r.upsertLocked(ch)
	membership := r.membership
	r.mu.Unlock()

	if membership != nil && prev != 0 {
		membership.LeaveChannel(prev)
	}

	go r.loadHistory(ctx, ch.ID)

	if membership != nil {
		membership.JoinChannel(ch.ID)
	}
}

// loadHistory fetches and commits a channel's history. The commit is guarded:
// a fetch that resolves after the user has moved on is discarded.
func (r *ChannelRegistry) loadHistory(ctx context.Context, channelID int64) {
	messages, err := r.history.ChannelMessages(ctx, channelID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID != channelID {
		log.Printf("registry: discarding stale history for channel %d", channelID)
		return
	}

	if err != nil {
		// Read failures degrade to an empty list; retry is user-initiated.
		log.Printf("registry: history fetch for channel %d failed: %v", channelID, err)
		r.store.Reset(channelID, nil)
		return
	}

	r.store.Reset(channelID, messages)
}
