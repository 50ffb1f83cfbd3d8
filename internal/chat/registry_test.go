package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudos-league/kudos-client/internal/domain"
)

type fakeMembership struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeMembership) JoinChannel(channelID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("join:%d", channelID))
}

func (f *fakeMembership) LeaveChannel(channelID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("leave:%d", channelID))
}

func (f *fakeMembership) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeHistory struct {
	mu      sync.Mutex
	calls   []int64
	results map[int64][]domain.Message
	err     error

	// blockOn makes fetches for that channel wait until release is closed.
	blockOn int64
	release chan struct{}
}

func (f *fakeHistory) ChannelMessages(_ context.Context, channelID int64) ([]domain.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, channelID)
	blocked := f.blockOn == channelID && f.release != nil
	f.mu.Unlock()

	if blocked {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[channelID], nil
}

func (f *fakeHistory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestRegistry(t *testing.T, history *fakeHistory) (*ChannelRegistry, *fakeMembership, *MessageStore) {
	t.Helper()
	if history.results == nil {
		history.results = make(map[int64][]domain.Message)
	}
	store := NewMessageStore()
	registry := NewChannelRegistry(history, store)
	membership := &fakeMembership{}
	registry.SetMembership(membership)
	registry.SetIdentity(5)
	return registry, membership, store
}

func waitForChannel(t *testing.T, store *MessageStore, channelID int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return store.ChannelID() == channelID
	}, time.Second, 5*time.Millisecond)
}

func TestSelectSwitchSymmetry(t *testing.T) {
	history := &fakeHistory{results: map[int64][]domain.Message{
		1: {msg(1, 10, "a")},
		2: {msg(2, 10, "b")},
	}}
	registry, membership, store := newTestRegistry(t, history)

	registry.Select(context.Background(), domain.Channel{ID: 1, Type: domain.ChannelTypePublic})
	waitForChannel(t, store, 1)

	registry.Select(context.Background(), domain.Channel{ID: 2, Type: domain.ChannelTypePublic})
	waitForChannel(t, store, 2)

	assert.Equal(t, []string{"join:1", "leave:1", "join:2"}, membership.snapshot())
	assert.Equal(t, 2, history.callCount(), "one history load per selection")
}

func TestReselectingActiveChannelIsNoop(t *testing.T) {
	history := &fakeHistory{results: map[int64][]domain.Message{1: {msg(1, 10, "a")}}}
	registry, membership, store := newTestRegistry(t, history)

	ch := domain.Channel{ID: 1, Type: domain.ChannelTypePublic}
	registry.Select(context.Background(), ch)
	waitForChannel(t, store, 1)
	registry.Select(context.Background(), ch)

	assert.Equal(t, []string{"join:1"}, membership.snapshot())
	assert.Equal(t, 1, history.callCount())
}

func TestStaleHistoryFetchIsDiscarded(t *testing.T) {
	history := &fakeHistory{
		results: map[int64][]domain.Message{
			1: {msg(1, 10, "stale")},
			2: {msg(2, 10, "fresh")},
		},
		blockOn: 1,
		release: make(chan struct{}),
	}
	registry, _, store := newTestRegistry(t, history)

	// Channel 1's fetch hangs; the user moves on to channel 2.
	registry.Select(context.Background(), domain.Channel{ID: 1, Type: domain.ChannelTypePublic})
	registry.Select(context.Background(), domain.Channel{ID: 2, Type: domain.ChannelTypePublic})
	waitForChannel(t, store, 2)

	// Channel 1's fetch finally resolves and must be discarded.
	close(history.release)

	require.Eventually(t, func() bool {
		return history.callCount() == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int64(2), store.ChannelID())
	messages := store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "fresh", messages[0].Content)
}

func TestSelectionBeforeAuthIsDeferred(t *testing.T) {
	history := &fakeHistory{results: map[int64][]domain.Message{3: {msg(1, 10, "a")}}}
	store := NewMessageStore()
	registry := NewChannelRegistry(history, store)
	membership := &fakeMembership{}
	registry.SetMembership(membership)

	registry.Select(context.Background(), domain.Channel{ID: 3, Type: domain.ChannelTypePublic})
	assert.Empty(t, membership.snapshot(), "nothing happens before a token is available")
	assert.Zero(t, history.callCount())

	registry.SetIdentity(5)
	waitForChannel(t, store, 3)
	assert.Equal(t, []string{"join:3"}, membership.snapshot())
}

func TestHistoryFetchFailureDegradesToEmptyState(t *testing.T) {
	history := &fakeHistory{err: errors.New("backend down")}
	registry, _, store := newTestRegistry(t, history)

	registry.Select(context.Background(), domain.Channel{ID: 4, Type: domain.ChannelTypePublic})

	waitForChannel(t, store, 4)
	assert.Zero(t, store.Len())
}

func TestListDerivesOtherUserForDMScope(t *testing.T) {
	registry, _, _ := newTestRegistry(t, &fakeHistory{})

	registry.Upsert(domain.Channel{
		ID:    1,
		Type:  domain.ChannelTypeDM,
		Users: []domain.User{{ID: 5, Username: "me"}, {ID: 9, Username: "them"}},
	})
	registry.Upsert(domain.Channel{ID: 2, Type: domain.ChannelTypePublic, Name: "general"})

	dms := registry.List(domain.ChannelTypeDM)
	require.Len(t, dms, 1)
	require.NotNil(t, dms[0].OtherUser)
	assert.Equal(t, int64(9), dms[0].OtherUser.ID)

	public := registry.List(domain.ChannelTypePublic)
	require.Len(t, public, 1)
	assert.Nil(t, public[0].OtherUser)
	assert.Equal(t, "general", public[0].Name)
}

func TestFindDMLooksUpExistingConversation(t *testing.T) {
	registry, _, _ := newTestRegistry(t, &fakeHistory{})

	registry.Upsert(domain.Channel{
		ID:    1,
		Type:  domain.ChannelTypeDM,
		Users: []domain.User{{ID: 5}, {ID: 9}},
	})

	ch, ok := registry.FindDM(9)
	require.True(t, ok)
	assert.Equal(t, int64(1), ch.ID)

	_, ok = registry.FindDM(12)
	assert.False(t, ok)
}

func TestUpdateLastMessageCreatesStubForUnknownChannel(t *testing.T) {
	registry, _, _ := newTestRegistry(t, &fakeHistory{})

	m := msg(1, 9, "hi there")
	registry.UpdateLastMessage(77, m)

	dms := registry.List(domain.ChannelTypeDM)
	require.Len(t, dms, 1)
	assert.Equal(t, int64(77), dms[0].ID)
	require.NotNil(t, dms[0].LastMessage)
	assert.Equal(t, "hi there", dms[0].LastMessage.Content)
}

func TestUpsertPreservesPreview(t *testing.T) {
	registry, _, _ := newTestRegistry(t, &fakeHistory{})

	registry.Upsert(domain.Channel{ID: 1, Type: domain.ChannelTypePublic, Name: "general"})
	registry.UpdateLastMessage(1, msg(1, 9, "latest"))
	registry.Upsert(domain.Channel{ID: 1, Type: domain.ChannelTypePublic, Name: "general-renamed"})

	chs := registry.List(domain.ChannelTypePublic)
	require.Len(t, chs, 1)
	assert.Equal(t, "general-renamed", chs[0].Name)
	require.NotNil(t, chs[0].LastMessage)
	assert.Equal(t, "latest", chs[0].LastMessage.Content)
}
