package hub

import (
	"sync"
	"time"

	"github.com/lizhongyi/aqiang-chat/internal/models"
)

// stubConn records every event the hub sends it.
type stubConn struct {
	mu        sync.Mutex
	id        string
	connected bool
	events    []any
}

func newStubConn(id string) *stubConn {
	return &stubConn{id: id, connected: true}
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Send(event any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *stubConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *stubConn) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *stubConn) received() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.events))
	copy(out, c.events)
	return out
}

func (c *stubConn) matchFound() []models.MatchFound {
	var out []models.MatchFound
	for _, ev := range c.received() {
		if m, ok := ev.(models.MatchFound); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) systemMessages() []models.SystemMessage {
	var out []models.SystemMessage
	for _, ev := range c.received() {
		if m, ok := ev.(models.SystemMessage); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) disconnectNotices() []models.UserDisconnected {
	var out []models.UserDisconnected
	for _, ev := range c.received() {
		if m, ok := ev.(models.UserDisconnected); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) newMessages() []models.NewMessage {
	var out []models.NewMessage
	for _, ev := range c.received() {
		if m, ok := ev.(models.NewMessage); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) typingStatuses() []models.TypingStatus {
	var out []models.TypingStatus
	for _, ev := range c.received() {
		if m, ok := ev.(models.TypingStatus); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) verified() []models.ChatVerified {
	var out []models.ChatVerified
	for _, ev := range c.received() {
		if m, ok := ev.(models.ChatVerified); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *stubConn) invalid() []models.ChatInvalid {
	var out []models.ChatInvalid
	for _, ev := range c.received() {
		if m, ok := ev.(models.ChatInvalid); ok {
			out = append(out, m)
		}
	}
	return out
}

// fakeClock backs the hub's now func in tests.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur = f.cur.Add(d)
}

func newTestHub() (*Hub, *fakeClock) {
	clock := newFakeClock()
	h := New(Policies{QueueTimeout: 5 * time.Minute, GracePeriod: 10 * time.Minute}, nil, nil)
	h.now = clock.now
	return h, clock
}
