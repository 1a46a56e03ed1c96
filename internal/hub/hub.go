package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
	"github.com/lizhongyi/aqiang-chat/internal/storage"
)

// Routing keys for matchmaking lifecycle events.
const (
	routingMatchFound     = "matchmaking.match_found"
	routingQueueTimeout   = "matchmaking.queue_timeout"
	routingSessionExpired = "matchmaking.session_expired"
	routingChatEnded      = "matchmaking.chat_ended"
)

var (
	// ErrSessionNotFound marks operations against a session that no longer
	// exists. Callers treat it as a benign no-op.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized is reserved for resume-token enforcement; resume is
	// currently authenticated by session id possession alone.
	ErrUnauthorized = errors.New("unauthorized")
)

const persistTimeout = 5 * time.Second

// waitingUser is one entry in the matchmaking queue.
type waitingUser struct {
	conn       Conn
	nickname   string
	gender     models.Gender
	preference models.Preference
	enqueuedAt time.Time
}

// Participant is one of the two slots of a session. The connection handle
// is reassigned when the participant reconnects.
type Participant struct {
	Nickname       string
	Gender         models.Gender
	Preference     models.Preference
	conn           Conn
	disconnectedAt *time.Time
}

// connected reports whether the slot can receive events right now.
func (p *Participant) connected() bool {
	return p.disconnectedAt == nil && p.conn != nil && p.conn.Connected()
}

// Session is an active or recently-active two-party pairing. It always has
// exactly two participant slots; it is deleted rather than shrunk.
type Session struct {
	ID           string
	Participants [2]*Participant
	CreatedAt    time.Time
}

// other returns the participant slot not owned by the given connection.
func (s *Session) other(connID string) *Participant {
	if s.Participants[0].conn != nil && s.Participants[0].conn.ID() == connID {
		return s.Participants[1]
	}
	return s.Participants[0]
}

// member returns the slot owned by the given connection, or nil.
func (s *Session) member(connID string) *Participant {
	for _, p := range s.Participants {
		if p.conn != nil && p.conn.ID() == connID {
			return p
		}
	}
	return nil
}

// Policies are the time limits governing queue and session reaping.
type Policies struct {
	QueueTimeout time.Duration
	GracePeriod  time.Duration
}

// Hub owns the waiting queue and the session table. Every mutation of either
// goes through its mutex, so live requests and sweeps can never observe a
// torn state.
type Hub struct {
	mu       sync.Mutex
	queue    []*waitingUser
	sessions map[string]*Session

	policies Policies
	store    storage.SessionStore
	events   rabbitmq.Publisher
	now      func() time.Time
	log      *logrus.Entry
}

// New constructs a Hub. Zero policy values fall back to the matchmaking
// defaults (5 minute queue timeout, 10 minute grace period).
func New(policies Policies, store storage.SessionStore, events rabbitmq.Publisher) *Hub {
	if policies.QueueTimeout <= 0 {
		policies.QueueTimeout = 5 * time.Minute
	}
	if policies.GracePeriod <= 0 {
		policies.GracePeriod = 10 * time.Minute
	}
	if store == nil {
		store = storage.NewNoopStore("no store configured")
	}
	return &Hub{
		sessions: make(map[string]*Session),
		policies: policies,
		store:    store,
		events:   events,
		now:      time.Now,
		log:      logrus.WithField("component", "hub"),
	}
}

// isQueuedLocked reports whether the connection already waits in the queue.
func (h *Hub) isQueuedLocked(connID string) bool {
	for _, u := range h.queue {
		if u.conn.ID() == connID {
			return true
		}
	}
	return false
}

// sessionOfLocked returns the session a connection currently belongs to.
func (h *Hub) sessionOfLocked(connID string) *Session {
	for _, s := range h.sessions {
		if s.member(connID) != nil {
			return s
		}
	}
	return nil
}

// removeFromQueueLocked splices a connection out of the queue. Reports
// whether an entry was removed.
func (h *Hub) removeFromQueueLocked(connID string) bool {
	for i, u := range h.queue {
		if u.conn.ID() == connID {
			h.queue = append(h.queue[:i], h.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (h *Hub) snapshotLocked(s *Session) storage.Snapshot {
	snap := storage.Snapshot{ID: s.ID, CreatedAt: s.CreatedAt}
	for _, p := range s.Participants {
		snap.Participants = append(snap.Participants, storage.ParticipantProfile{
			Nickname:   p.Nickname,
			Gender:     string(p.Gender),
			Preference: string(p.Preference),
			Connected:  p.disconnectedAt == nil,
		})
	}
	return snap
}

// persistSnapshot writes a session snapshot without ever holding the hub
// lock during the write. Failures are logged, not surfaced.
func (h *Hub) persistSnapshot(snap storage.Snapshot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := h.store.SaveSession(ctx, snap); err != nil {
			h.log.WithField("chatId", snap.ID).WithError(err).Warn("session snapshot failed")
		}
	}()
}

func (h *Hub) discardSnapshot(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := h.store.DeleteSession(ctx, id); err != nil {
			h.log.WithField("chatId", id).WithError(err).Warn("session snapshot delete failed")
		}
	}()
}

func (h *Hub) publish(routingKey string, event rabbitmq.Event) {
	if h.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		_ = h.events.Publish(ctx, routingKey, event)
	}()
}

// QueueDepth reports the number of waiting users.
func (h *Hub) QueueDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// SessionCount reports the number of active sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
