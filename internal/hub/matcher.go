package hub

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
)

// accepts reports whether a would chat with b. A preference of any accepts
// everyone; a specific preference requires b's gender to be declared and to
// match.
func accepts(aPref models.Preference, bGender models.Gender) bool {
	if aPref == models.PrefAny {
		return true
	}
	return bGender != models.GenderUnknown && string(bGender) == string(aPref)
}

// isCompatibleMatch requires acceptance in both directions.
func isCompatibleMatch(a, b *waitingUser) bool {
	return accepts(a.preference, b.gender) && accepts(b.preference, a.gender)
}

// takeCompatibleLocked scans the queue head to tail and removes the first
// entry compatible with the candidate. First-fit keeps the queue FIFO-fair:
// among acceptable partners the longest-waiting one wins.
func (h *Hub) takeCompatibleLocked(candidate *waitingUser) *waitingUser {
	for i, entry := range h.queue {
		if isCompatibleMatch(candidate, entry) {
			h.queue = append(h.queue[:i], h.queue[i+1:]...)
			return entry
		}
	}
	return nil
}

// RequestMatch pairs the caller with the first compatible waiting user or
// enqueues them. Re-requesting while already queued or already in a session
// is a no-op.
func (h *Hub) RequestMatch(conn Conn, nickname, gender, preference string) {
	user := &waitingUser{
		conn:       conn,
		nickname:   models.SanitizeNickname(nickname),
		gender:     models.ParseGender(gender),
		preference: models.ParsePreference(preference),
	}

	h.mu.Lock()
	if h.isQueuedLocked(conn.ID()) || h.sessionOfLocked(conn.ID()) != nil {
		h.mu.Unlock()
		h.log.WithField("connID", conn.ID()).Debug("duplicate match request ignored")
		return
	}
	user.enqueuedAt = h.now()

	// A hidden gender cannot satisfy anyone's specific preference, so warn
	// the user before they sit in the queue wondering.
	advisory := user.gender == models.GenderUnknown && user.preference != models.PrefAny

	partner := h.takeCompatibleLocked(user)
	if partner == nil {
		h.queue = append(h.queue, user)
		depth := len(h.queue)
		h.mu.Unlock()

		observability.SetQueueDepth(depth)
		if advisory {
			conn.Send(models.NewSystemMessage("You set a gender preference but kept your own gender private; this may limit your matches."))
		}
		conn.Send(models.NewSystemMessage(fmt.Sprintf("Waiting for %s...", models.PreferenceText(user.preference))))
		return
	}

	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: h.now(),
		Participants: [2]*Participant{
			{Nickname: user.nickname, Gender: user.gender, Preference: user.preference, conn: user.conn},
			{Nickname: partner.nickname, Gender: partner.gender, Preference: partner.preference, conn: partner.conn},
		},
	}
	h.sessions[session.ID] = session
	depth, sessions := len(h.queue), len(h.sessions)
	snap := h.snapshotLocked(session)
	h.mu.Unlock()

	observability.SetQueueDepth(depth)
	observability.SetActiveSessions(sessions)
	observability.IncMatches()

	if advisory {
		conn.Send(models.NewSystemMessage("You set a gender preference but kept your own gender private; this may limit your matches."))
	}
	user.conn.Send(models.NewMatchFound(session.ID, partner.nickname, partner.gender))
	partner.conn.Send(models.NewMatchFound(session.ID, user.nickname, user.gender))

	h.log.WithFields(map[string]any{"chatId": session.ID, "connID": conn.ID()}).Info("match found")
	h.persistSnapshot(snap)
	h.publish(routingMatchFound, rabbitmq.NewEvent("match_found", session.ID, ""))
}

// CancelMatch removes the caller from the waiting queue. Idempotent when the
// caller is not queued.
func (h *Hub) CancelMatch(conn Conn) {
	h.mu.Lock()
	removed := h.removeFromQueueLocked(conn.ID())
	depth := len(h.queue)
	h.mu.Unlock()

	if !removed {
		return
	}
	observability.SetQueueDepth(depth)
	conn.Send(models.NewSystemMessage("Match cancelled."))
}
