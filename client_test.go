package kudos

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-league/kudos-client/internal/api"
	"github.com/kudos-league/kudos-client/internal/chat"
	"github.com/kudos-league/kudos-client/internal/domain"
	"github.com/kudos-league/kudos-client/internal/handshake"
	"github.com/kudos-league/kudos-client/internal/notify"
	"github.com/kudos-league/kudos-client/internal/realtime"
)

type stubConn struct {
	mu     sync.Mutex
	writes []*realtime.Event
}

func (c *stubConn) ReadJSON(ctx context.Context, v any) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *stubConn) WriteJSON(_ context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, v.(*realtime.Event))
	return nil
}

func (c *stubConn) Ping(context.Context) error { return nil }
func (c *stubConn) Close() error               { return nil }

func (c *stubConn) written() []*realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*realtime.Event, len(c.writes))
	copy(out, c.writes)
	return out
}

type stubHandshakeAPI struct {
	mu      sync.Mutex
	created []api.CreateHandshakeInput
	next    *domain.Handshake
}

func (s *stubHandshakeAPI) CreateHandshake(_ context.Context, input api.CreateHandshakeInput) (*domain.Handshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, input)
	return s.next, nil
}

func (s *stubHandshakeAPI) UpdateHandshakeStatus(context.Context, int64, domain.HandshakeStatus) (*domain.Handshake, error) {
	return nil, nil
}

func (s *stubHandshakeAPI) DeleteHandshake(context.Context, int64) error { return nil }

func (s *stubHandshakeAPI) CreateRewardOffer(context.Context, api.RewardOfferInput) (*domain.RewardOffer, error) {
	return nil, nil
}

func (s *stubHandshakeAPI) createdInputs() []api.CreateHandshakeInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.CreateHandshakeInput, len(s.created))
	copy(out, s.created)
	return out
}

func newTestClient(t *testing.T, userID int64) (*Client, *stubConn, *stubHandshakeAPI) {
	t.Helper()
	conn := &stubConn{}
	store := chat.NewMessageStore()
	registry := chat.NewChannelRegistry(nil, store)
	router := notify.NewRouter(registry, store)
	session := realtime.NewSession(conn, store, registry, router)

	backend := &stubHandshakeAPI{}
	client := &Client{
		UserID:     userID,
		Store:      store,
		Channels:   registry,
		Session:    session,
		Handshakes: handshake.NewLifecycle(backend, userID),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = session.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return client, conn, backend
}

func waitForSends(t *testing.T, conn *stubConn, n int) []*realtime.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(conn.written()) >= n
	}, time.Second, 5*time.Millisecond)
	return conn.written()
}

func TestMessageAboutPostMaterializesHandshake(t *testing.T) {
	client, conn, backend := newTestClient(t, 2)
	post := &domain.Post{ID: 100, Type: domain.PostTypeGift, SenderID: 1, Status: domain.PostStatusOpen}
	backend.next = &domain.Handshake{ID: 7, PostID: 100, SenderID: 2, Status: domain.HandshakeStatusNew}

	h, err := client.MessageAboutPost(context.Background(), post, 1, "is this still available?")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, int64(7), h.ID)
	require.Len(t, post.Handshakes, 1)

	created := backend.createdInputs()
	require.Len(t, created, 1)
	assert.Equal(t, int64(100), created[0].PostID)
	require.NotNil(t, created[0].ReceiverID)
	assert.Equal(t, int64(1), *created[0].ReceiverID)

	writes := waitForSends(t, conn, 1)
	require.Len(t, writes, 1)
	assert.Equal(t, realtime.EventTypeMessageSend, writes[0].Type)

	var payload realtime.SendPayload
	require.NoError(t, json.Unmarshal(writes[0].Payload, &payload))
	require.NotNil(t, payload.ReceiverID)
	assert.Equal(t, int64(1), *payload.ReceiverID)
	assert.Equal(t, "is this still available?", payload.Content)
}

func TestMessageAboutPostFollowUpReusesHandshake(t *testing.T) {
	client, conn, backend := newTestClient(t, 2)
	post := &domain.Post{
		ID: 100, Type: domain.PostTypeGift, SenderID: 1, Status: domain.PostStatusOpen,
		Handshakes: []domain.Handshake{{ID: 3, SenderID: 2, Status: domain.HandshakeStatusNew}},
	}

	h, err := client.MessageAboutPost(context.Background(), post, 1, "still interested")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, int64(3), h.ID, "the existing handshake is reused")
	assert.Empty(t, backend.createdInputs(), "follow-ups never open a second handshake")

	waitForSends(t, conn, 1)
}

func TestMessageAboutPostOwnerReply(t *testing.T) {
	client, conn, backend := newTestClient(t, 1)
	post := &domain.Post{
		ID: 100, Type: domain.PostTypeGift, SenderID: 1, Status: domain.PostStatusOpen,
		Handshakes: []domain.Handshake{{ID: 3, SenderID: 2, Status: domain.HandshakeStatusNew}},
	}

	h, err := client.MessageAboutPost(context.Background(), post, 2, "it's yours if you want it")
	require.NoError(t, err)
	assert.Nil(t, h, "the owner never holds a handshake on their own post")
	assert.Empty(t, backend.createdInputs())

	waitForSends(t, conn, 1)
}

func TestMessageAboutPostClosedPostRefusedBeforeSend(t *testing.T) {
	client, conn, backend := newTestClient(t, 2)
	post := &domain.Post{ID: 100, Type: domain.PostTypeGift, SenderID: 1, Status: domain.PostStatusClosed}

	_, err := client.MessageAboutPost(context.Background(), post, 1, "too late?")
	assert.ErrorIs(t, err, handshake.ErrPostClosed)
	assert.Empty(t, backend.createdInputs())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, conn.written(), "nothing reaches the wire for a refused post")
}

func TestMessageAboutPostEmptyContent(t *testing.T) {
	client, conn, backend := newTestClient(t, 2)
	post := &domain.Post{ID: 100, Type: domain.PostTypeGift, SenderID: 1, Status: domain.PostStatusOpen}

	_, err := client.MessageAboutPost(context.Background(), post, 1, "   ")
	assert.ErrorIs(t, err, realtime.ErrEmptyContent)
	assert.Empty(t, backend.createdInputs(), "a rejected message must not open a handshake")

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, conn.written())
}
