// Package kudos is a client for the Kudos League backend: channel and DM
// bookkeeping, the live message list, the handshake lifecycle, and
// notification routing, over the backend's REST and realtime endpoints.
package kudos

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kudos-league/kudos-client/internal/api"
	"github.com/kudos-league/kudos-client/internal/auth"
	"github.com/kudos-league/kudos-client/internal/chat"
	"github.com/kudos-league/kudos-client/internal/domain"
	"github.com/kudos-league/kudos-client/internal/handshake"
	"github.com/kudos-league/kudos-client/internal/notify"
	"github.com/kudos-league/kudos-client/internal/realtime"
)

// Options holds connection parameters.
type Options struct {
	APIBaseURL  string
	WSURL       string
	Token       string // session JWT issued by the backend
	HTTPTimeout time.Duration
}

// Client ties the session-scoped components together. Each is constructed
// once per session and passed by reference to the parts that need it.
type Client struct {
	UserID        int64
	API           *api.Client
	Store         *chat.MessageStore
	Channels      *chat.ChannelRegistry
	Session       *realtime.Session
	Handshakes    *handshake.Lifecycle
	Notifications *notify.Router
}

// Dial connects to the backend and wires the client components. The DM
// channel list is seeded from the backend; a failure there degrades to an
// empty list rather than failing the dial.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	userID, err := auth.UserIDFromToken(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	apiClient := api.New(opts.APIBaseURL, opts.Token, opts.HTTPTimeout)
	store := chat.NewMessageStore()
	registry := chat.NewChannelRegistry(apiClient, store)
	router := notify.NewRouter(registry, store)

	session, err := realtime.Dial(ctx, opts.WSURL, opts.Token, store, registry, router)
	if err != nil {
		apiClient.Close()
		return nil, err
	}
	registry.SetMembership(session)
	registry.SetIdentity(userID)

	lifecycle := handshake.NewLifecycle(apiClient, userID)
	lifecycle.SetChatOpener(func(counterpartyUserID int64) {
		if ch, ok := registry.FindDM(counterpartyUserID); ok {
			registry.Select(context.Background(), ch)
		}
	})

	if channels, err := apiClient.DMChannels(ctx, userID); err != nil {
		log.Printf("kudos: dm channel list fetch failed: %v", err)
	} else {
		for _, ch := range channels {
			registry.Upsert(ch)
		}
	}

	return &Client{
		UserID:        userID,
		API:           apiClient,
		Store:         store,
		Channels:      registry,
		Session:       session,
		Handshakes:    lifecycle,
		Notifications: router,
	}, nil
}

// MessageAboutPost sends a coordinating direct message about a post. The
// first message a responder sends materializes their handshake as part of the
// same operation; follow-ups and owner replies only deliver the message. A
// closed post without a prior handshake is refused before anything is sent.
func (c *Client) MessageAboutPost(ctx context.Context, post *domain.Post, counterpartyUserID int64, content string) (*domain.Handshake, error) {
	ownPost := post.SenderID == c.UserID
	existing := post.ActiveHandshakeBy(c.UserID)
	if !ownPost && existing == nil && post.Closed() {
		return nil, handshake.ErrPostClosed
	}

	if err := c.Session.SendDirectMessage(counterpartyUserID, content); err != nil {
		return nil, err
	}
	if ownPost {
		return nil, nil
	}
	if existing != nil {
		return existing, nil
	}
	return c.Handshakes.CreateForMessage(ctx, post, counterpartyUserID)
}

// Run drives the realtime session until the context ends or the connection
// drops.
func (c *Client) Run(ctx context.Context) error {
	return c.Session.Run(ctx)
}

func (c *Client) Close() {
	c.API.Close()
}
