package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lizhongyi/aqiang-chat/internal/mocks"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
	"github.com/lizhongyi/aqiang-chat/internal/storage"
)

func TestMatchPersistsSnapshotAndPublishes(t *testing.T) {
	store := new(mocks.SessionStoreMock)
	publisher := new(mocks.PublisherMock)

	saved := make(chan storage.Snapshot, 1)
	store.On("SaveSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved <- args.Get(1).(storage.Snapshot) }).
		Return(nil)

	published := make(chan rabbitmq.Event, 1)
	publisher.On("Publish", mock.Anything, "matchmaking.match_found", mock.Anything).
		Run(func(args mock.Arguments) { published <- args.Get(2).(rabbitmq.Event) }).
		Return(nil)

	h := New(Policies{}, store, publisher)
	a := newStubConn("a")
	b := newStubConn("b")
	h.RequestMatch(a, "alice", "female", "any")
	h.RequestMatch(b, "bob", "male", "any")

	select {
	case snap := <-saved:
		require.Len(t, snap.Participants, 2)
		assert.Equal(t, a.matchFound()[0].ChatID, snap.ID)
		for _, p := range snap.Participants {
			assert.True(t, p.Connected)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot was never saved")
	}

	select {
	case event := <-published:
		assert.Equal(t, "match_found", event.EventType)
		assert.Equal(t, a.matchFound()[0].ChatID, event.ChatID)
	case <-time.After(time.Second):
		t.Fatal("match event was never published")
	}
}

func TestEndChatDiscardsSnapshot(t *testing.T) {
	store := new(mocks.SessionStoreMock)
	publisher := new(mocks.PublisherMock)
	store.On("SaveSession", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	deleted := make(chan string, 1)
	store.On("DeleteSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { deleted <- args.Get(1).(string) }).
		Return(nil)

	h := New(Policies{}, store, publisher)
	a := newStubConn("a")
	b := newStubConn("b")
	h.RequestMatch(a, "alice", "female", "any")
	h.RequestMatch(b, "bob", "male", "any")
	chatID := a.matchFound()[0].ChatID

	h.EndChat(chatID, a)

	select {
	case id := <-deleted:
		assert.Equal(t, chatID, id)
	case <-time.After(time.Second):
		t.Fatal("snapshot was never deleted")
	}
}

func TestStoreFailureDoesNotAffectMatching(t *testing.T) {
	store := new(mocks.SessionStoreMock)
	store.On("SaveSession", mock.Anything, mock.Anything).Return(assert.AnError)
	store.On("DeleteSession", mock.Anything, mock.Anything).Return(assert.AnError)

	h := New(Policies{}, store, nil)
	a := newStubConn("a")
	b := newStubConn("b")
	h.RequestMatch(a, "alice", "female", "any")
	h.RequestMatch(b, "bob", "male", "any")

	require.Len(t, a.matchFound(), 1)
	require.Len(t, b.matchFound(), 1)
	assert.Equal(t, 1, h.SessionCount())
}

// Full scenario: match, chat, drop, reconnect, end.
func TestSessionLifecycleEndToEnd(t *testing.T) {
	h, clock := newTestHub()
	a := newStubConn("a")
	b := newStubConn("b")

	h.RequestMatch(a, "alice", "female", "any")
	h.RequestMatch(b, "bob", "male", "female")
	require.Len(t, a.matchFound(), 1)
	chatID := a.matchFound()[0].ChatID

	h.RelayMessage(chatID, a, "hi", false)
	require.Len(t, b.newMessages(), 1)

	a.drop()
	h.HandleDisconnect(a)
	require.Len(t, b.disconnectNotices(), 1)
	require.True(t, b.disconnectNotices()[0].IsReconnecting)

	clock.advance(3 * time.Minute)
	a2 := newStubConn("a2")
	h.VerifyChat(chatID, a2)
	require.Len(t, a2.verified(), 1)
	assert.Equal(t, "alice", a2.verified()[0].SelfNickname)

	h.RelayMessage(chatID, a2, "back again", false)
	require.Len(t, b.newMessages(), 2)

	h.EndChat(chatID, b)
	assert.Equal(t, 0, h.SessionCount())
	notices := a2.disconnectNotices()
	require.Len(t, notices, 1)
	assert.False(t, notices[0].IsReconnecting)
}
