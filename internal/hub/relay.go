package hub

import (
	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
)

// RelayMessage forwards a chat message to the sender's partner. Unknown
// sessions and non-member senders are dropped silently; the sender may
// simply be stale. Relay never mutates session state.
func (h *Hub) RelayMessage(chatID string, conn Conn, content string, isImage bool) {
	h.mu.Lock()
	session, ok := h.sessions[chatID]
	if !ok {
		h.mu.Unlock()
		return
	}
	sender := session.member(conn.ID())
	if sender == nil {
		h.mu.Unlock()
		return
	}
	partner := session.other(conn.ID())
	deliver := partner.connected()
	target := partner.conn
	senderNickname := sender.Nickname
	h.mu.Unlock()

	if !deliver {
		return
	}
	target.Send(models.NewChatMessage(chatID, content, isImage, senderNickname))
	observability.IncRelayed("message")
}

// RelayTyping forwards only the typing flag and the session id.
func (h *Hub) RelayTyping(chatID string, conn Conn, isTyping bool) {
	h.mu.Lock()
	session, ok := h.sessions[chatID]
	if !ok || session.member(conn.ID()) == nil {
		h.mu.Unlock()
		return
	}
	partner := session.other(conn.ID())
	deliver := partner.connected()
	target := partner.conn
	h.mu.Unlock()

	if !deliver {
		return
	}
	target.Send(models.NewTypingStatus(chatID, isTyping))
	observability.IncRelayed("typing")
}
