// Package handshake implements the client side of the exchange state machine:
// new → accepted → completed, with undo (accepted → new) and sender-only
// rescind of pending offers.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kudos-league/kudos-client/internal/api"
	"github.com/kudos-league/kudos-client/internal/domain"
	"github.com/kudos-league/kudos-client/pkg/validator"
)

var (
	ErrNotPending      = errors.New("handshake is not pending")
	ErrNotAccepted     = errors.New("handshake is not accepted")
	ErrNotSender       = errors.New("only the handshake sender can rescind")
	ErrNotReceiver     = errors.New("only the receiving side can undo an accept")
	ErrNotItemReceiver = errors.New("only the item receiver can complete the exchange")
	ErrNotConfirmed    = errors.New("rescind was not confirmed")
	ErrInvalidKudos    = errors.New("kudos amount must be a finite, non-negative number")
	ErrPostClosed      = errors.New("post is closed for new handshakes")
	ErrOwnPost         = errors.New("cannot open a handshake on your own post")
	ErrAlreadyExists   = errors.New("an active handshake on this post already exists")
	ErrMissingPost     = errors.New("handshake has no post attached")
)

// API is the backend surface the lifecycle mutates handshakes through.
type API interface {
	CreateHandshake(ctx context.Context, input api.CreateHandshakeInput) (*domain.Handshake, error)
	UpdateHandshakeStatus(ctx context.Context, id int64, status domain.HandshakeStatus) (*domain.Handshake, error)
	DeleteHandshake(ctx context.Context, id int64) error
	CreateRewardOffer(ctx context.Context, input api.RewardOfferInput) (*domain.RewardOffer, error)
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer func(prompt string) bool

// ChatOpener is invoked after a successful accept to open a chat with the
// counterparty.
type ChatOpener func(counterpartyUserID int64)

// Lifecycle guards every transition locally before any network call, applies
// it optimistically, and reverts on backend failure. Nothing is retried
// automatically.
type Lifecycle struct {
	api           API
	currentUserID int64
	confirm       Confirmer
	openChat      ChatOpener
}

func NewLifecycle(client API, currentUserID int64) *Lifecycle {
	return &Lifecycle{
		api:           client,
		currentUserID: currentUserID,
	}
}

// SetConfirmer sets the confirmation prompt used before a rescind. Without
// one, rescinds are refused.
func (l *Lifecycle) SetConfirmer(c Confirmer) {
	l.confirm = c
}

// SetChatOpener sets the post-accept chat affordance (optional dependency).
func (l *Lifecycle) SetChatOpener(o ChatOpener) {
	l.openChat = o
}

// Accept moves a pending handshake to accepted and opens a chat with the
// counterparty. On backend failure the status is reverted.
func (l *Lifecycle) Accept(ctx context.Context, h *domain.Handshake) error {
	if h.Status != domain.HandshakeStatusNew {
		return ErrNotPending
	}

	h.Status = domain.HandshakeStatusAccepted
	if _, err := l.api.UpdateHandshakeStatus(ctx, h.ID, domain.HandshakeStatusAccepted); err != nil {
		h.Status = domain.HandshakeStatusNew
		return fmt.Errorf("accepting handshake: %w", err)
	}

	if l.openChat != nil {
		if counterparty, ok := l.counterpartyOf(h); ok {
			l.openChat(counterparty)
		}
	}
	return nil
}

// UndoAccept reverts an accepted handshake to pending. Only the receiving
// side (not the handshake sender) may undo.
func (l *Lifecycle) UndoAccept(ctx context.Context, h *domain.Handshake) error {
	if h.Status != domain.HandshakeStatusAccepted {
		return ErrNotAccepted
	}
	if h.SenderID == l.currentUserID {
		return ErrNotReceiver
	}

	h.Status = domain.HandshakeStatusNew
	if _, err := l.api.UpdateHandshakeStatus(ctx, h.ID, domain.HandshakeStatusNew); err != nil {
		h.Status = domain.HandshakeStatusAccepted
		return fmt.Errorf("undoing accept: %w", err)
	}
	return nil
}

// Rescind deletes a pending handshake. Sender-only and irreversible; the
// delete goes out only after a wired confirmer approves it. On success the
// handshake leaves the post's list.
func (l *Lifecycle) Rescind(ctx context.Context, h *domain.Handshake) error {
	if h.Status != domain.HandshakeStatusNew {
		return ErrNotPending
	}
	if h.SenderID != l.currentUserID {
		return ErrNotSender
	}
	if l.confirm == nil || !l.confirm("Rescind this handshake? This cannot be undone.") {
		return ErrNotConfirmed
	}

	if err := l.api.DeleteHandshake(ctx, h.ID); err != nil {
		return fmt.Errorf("rescinding handshake: %w", err)
	}

	if h.Post != nil {
		h.Post.RemoveHandshake(h.ID)
	}
	return nil
}

// Complete finalizes an accepted exchange: a reward offer addressed to the
// resolved gifter, then the completed status. The two calls are one logical
// unit; if the status update fails after the reward was created, the
// handshake stays accepted locally and the error is surfaced.
func (l *Lifecycle) Complete(ctx context.Context, h *domain.Handshake, kudos float64) error {
	if errs := validator.ValidateKudos(kudos); errs.HasErrors() {
		return ErrInvalidKudos
	}
	if h.Status != domain.HandshakeStatusAccepted {
		return ErrNotAccepted
	}
	if h.Post == nil {
		return ErrMissingPost
	}

	gifterID, receiverID := h.ResolveRoles(h.Post)
	if l.currentUserID != receiverID {
		return ErrNotItemReceiver
	}

	if _, err := l.api.CreateRewardOffer(ctx, api.RewardOfferInput{
		PostID:     h.PostID,
		Amount:     kudos,
		Currency:   "kudos",
		Kudos:      kudos,
		ReceiverID: gifterID,
	}); err != nil {
		return fmt.Errorf("creating reward offer: %w", err)
	}

	if _, err := l.api.UpdateHandshakeStatus(ctx, h.ID, domain.HandshakeStatusCompleted); err != nil {
		// The reward offer exists but completion was never acknowledged.
		// The handshake must not claim completed without backend confirmation.
		return fmt.Errorf("completing handshake after reward offer: %w", err)
	}

	h.Status = domain.HandshakeStatusCompleted
	return nil
}

// CreateForMessage materializes a handshake as a side effect of the first
// coordinating DM about a post, never from a bare button.
func (l *Lifecycle) CreateForMessage(ctx context.Context, post *domain.Post, counterpartyUserID int64) (*domain.Handshake, error) {
	if post.Closed() {
		return nil, ErrPostClosed
	}
	if post.SenderID == l.currentUserID {
		return nil, ErrOwnPost
	}
	if post.ActiveHandshakeBy(l.currentUserID) != nil {
		return nil, ErrAlreadyExists
	}

	created, err := l.api.CreateHandshake(ctx, api.CreateHandshakeInput{
		PostID:     post.ID,
		ReceiverID: &counterpartyUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating handshake: %w", err)
	}

	post.Handshakes = append(post.Handshakes, *created)
	return created, nil
}

// counterpartyOf resolves who sits on the other side of the handshake from
// the current user.
func (l *Lifecycle) counterpartyOf(h *domain.Handshake) (int64, bool) {
	if h.SenderID != l.currentUserID {
		return h.SenderID, true
	}
	if h.Post != nil {
		return h.Post.SenderID, true
	}
	return 0, false
}

// SortForDisplay orders handshakes for a post's list: the viewing user's own
// offers first, then the rest by creation time, newest first. This ordering
// is a UI contract, not backend-provided.
func SortForDisplay(handshakes []domain.Handshake, currentUserID int64) []domain.Handshake {
	sorted := make([]domain.Handshake, len(handshakes))
	copy(sorted, handshakes)

	sort.SliceStable(sorted, func(i, j int) bool {
		iOwn := sorted[i].SenderID == currentUserID
		jOwn := sorted[j].SenderID == currentUserID
		if iOwn != jOwn {
			return iOwn
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}
