package hub

import (
	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
)

// EndChat terminates a session at a participant's request. The partner is
// notified before the session is deleted. Idempotent when the session is
// already gone.
func (h *Hub) EndChat(chatID string, conn Conn) {
	h.mu.Lock()
	session, ok := h.sessions[chatID]
	if !ok || session.member(conn.ID()) == nil {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, chatID)
	partner := session.other(conn.ID())
	notify := partner.connected()
	sessions := len(h.sessions)
	h.mu.Unlock()

	if notify {
		partner.conn.Send(models.NewUserDisconnected(chatID, false))
	}
	observability.SetActiveSessions(sessions)
	h.log.WithField("chatId", chatID).Info("chat ended")
	h.discardSnapshot(chatID)
	h.publish(routingChatEnded, rabbitmq.NewEvent("chat_ended", chatID, "ended by participant"))
}

// HandleDisconnect reacts to a closed transport. A queued user is removed
// silently; a session participant is marked disconnected and keeps their
// slot for the grace period, during which the partner is told reconnection
// is still possible.
func (h *Hub) HandleDisconnect(conn Conn) {
	h.mu.Lock()
	if h.removeFromQueueLocked(conn.ID()) {
		depth := len(h.queue)
		h.mu.Unlock()
		observability.SetQueueDepth(depth)
		return
	}

	session := h.sessionOfLocked(conn.ID())
	if session == nil {
		h.mu.Unlock()
		return
	}
	slot := session.member(conn.ID())
	if slot.disconnectedAt != nil {
		h.mu.Unlock()
		return
	}
	now := h.now()
	slot.disconnectedAt = &now
	partner := session.other(conn.ID())
	notify := partner.connected()
	snap := h.snapshotLocked(session)
	h.mu.Unlock()

	if notify {
		partner.conn.Send(models.NewUserDisconnected(session.ID, true))
	}
	h.log.WithFields(map[string]any{"chatId": session.ID, "connID": conn.ID()}).Info("participant disconnected")
	h.persistSnapshot(snap)
}

// VerifyChat answers a verify_chat request. A live participant gets their
// partner's info back unchanged. A caller presenting the id of a session
// with a disconnected slot is reattached to that slot and additionally gets
// their own stored profile, so the client can restore its display state.
// Anything else is an explicit failure, distinct from the waiting state.
func (h *Hub) VerifyChat(chatID string, conn Conn) {
	h.mu.Lock()
	session, ok := h.sessions[chatID]
	if !ok {
		h.mu.Unlock()
		conn.Send(models.NewChatInvalid(chatID, "chat not found or expired"))
		return
	}

	if slot := session.member(conn.ID()); slot != nil && slot.disconnectedAt == nil {
		partner := session.other(conn.ID())
		h.mu.Unlock()
		conn.Send(models.NewChatVerified(chatID, partner.Nickname, partner.Gender))
		return
	}

	var slot *Participant
	for _, p := range session.Participants {
		if p.disconnectedAt != nil {
			slot = p
			break
		}
	}
	if slot == nil {
		h.mu.Unlock()
		conn.Send(models.NewChatInvalid(chatID, "chat has no open seat"))
		return
	}

	slot.conn = conn
	slot.disconnectedAt = nil
	partner := session.other(conn.ID())
	notify := partner.connected()
	snap := h.snapshotLocked(session)
	h.mu.Unlock()

	verified := models.NewChatVerified(chatID, partner.Nickname, partner.Gender)
	verified.SelfNickname = slot.Nickname
	verified.SelfGender = slot.Gender
	conn.Send(verified)

	if notify {
		partner.conn.Send(models.NewSystemMessage("Your partner has reconnected."))
	}
	h.log.WithFields(map[string]any{"chatId": chatID, "connID": conn.ID()}).Info("participant reattached")
	h.persistSnapshot(snap)
}
