package hub

import (
	"context"
	"time"

	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
)

// RunSweeper reaps stale queue entries and stale sessions on a fixed
// interval until the context is cancelled. Sweeps take the same lock as
// live requests, so they can never race a match or an end-chat on the same
// record.
func (h *Hub) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.log.WithField("interval", interval).Info("sweeper started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			h.SweepOnce()
		}
	}
}

// SweepOnce runs a single maintenance pass.
func (h *Hub) SweepOnce() {
	h.sweepQueue()
	h.sweepSessions()
}

// sweepQueue removes users who have waited past the queue timeout, telling
// each one exactly once.
func (h *Hub) sweepQueue() {
	now := h.now()

	h.mu.Lock()
	var kept, reaped []*waitingUser
	for _, u := range h.queue {
		if now.Sub(u.enqueuedAt) > h.policies.QueueTimeout {
			reaped = append(reaped, u)
		} else {
			kept = append(kept, u)
		}
	}
	h.queue = kept
	depth := len(h.queue)
	h.mu.Unlock()

	if len(reaped) == 0 {
		return
	}
	observability.SetQueueDepth(depth)
	for _, u := range reaped {
		if u.conn.Connected() {
			u.conn.Send(models.NewSystemMessage("Match timed out: no compatible partner was found. Please try again."))
		}
		observability.IncSweepReaped("queue")
	}
	h.log.WithField("count", len(reaped)).Info("reaped timed-out queue entries")
	h.publish(routingQueueTimeout, rabbitmq.NewEvent("queue_timeout", "", "reaped waiting users"))
}

// resolvableLocked reports whether a participant slot can still take part in
// the session: either connected, or disconnected but inside the grace
// window.
func (h *Hub) resolvableLocked(p *Participant, now time.Time) bool {
	if p == nil || p.conn == nil {
		return false
	}
	if p.disconnectedAt == nil {
		return true
	}
	return now.Sub(*p.disconnectedAt) <= h.policies.GracePeriod
}

// sweepSessions deletes sessions with an unresolvable participant slot and
// notifies any still-connected participant once.
func (h *Hub) sweepSessions() {
	now := h.now()

	h.mu.Lock()
	var expired []*Session
	for id, s := range h.sessions {
		if !h.resolvableLocked(s.Participants[0], now) || !h.resolvableLocked(s.Participants[1], now) {
			delete(h.sessions, id)
			expired = append(expired, s)
		}
	}
	sessions := len(h.sessions)
	var survivors []struct {
		conn   Conn
		chatID string
	}
	for _, s := range expired {
		for _, p := range s.Participants {
			if p.connected() {
				survivors = append(survivors, struct {
					conn   Conn
					chatID string
				}{p.conn, s.ID})
			}
		}
	}
	h.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	observability.SetActiveSessions(sessions)
	for _, sv := range survivors {
		sv.conn.Send(models.NewUserDisconnected(sv.chatID, false))
	}
	for _, s := range expired {
		observability.IncSweepReaped("session")
		h.log.WithField("chatId", s.ID).Info("reaped stale session")
		h.discardSnapshot(s.ID)
		h.publish(routingSessionExpired, rabbitmq.NewEvent("session_expired", s.ID, "disconnect grace period exceeded"))
	}
}
