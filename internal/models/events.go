package models

import (
	"encoding/json"
	"fmt"
)

// Client event types accepted over the websocket. Anything else is rejected
// at the dispatch point.
const (
	EventMatchRequest = "match_request"
	EventCancelMatch  = "cancel_match"
	EventEndChat      = "end_chat"
	EventMessage      = "message"
	EventTyping       = "typing"
	EventVerifyChat   = "verify_chat"
)

// Server event types emitted over the websocket.
const (
	EventMatchFound       = "match_found"
	EventSystemMessage    = "system_message"
	EventUserDisconnected = "user_disconnected"
	EventNewMessage       = "new_message"
	EventTypingStatus     = "typing_status"
	EventChatVerified     = "chat_verified"
	EventChatInvalid      = "chat_invalid"
)

// ClientEvent is the envelope for every inbound frame. The Type tag decides
// which fields are meaningful.
type ClientEvent struct {
	Type             string `json:"type"`
	Nickname         string `json:"nickname,omitempty"`
	Gender           string `json:"gender,omitempty"`
	GenderPreference string `json:"genderPreference,omitempty"`
	ChatID           string `json:"chatId,omitempty"`
	Content          string `json:"content,omitempty"`
	IsImage          bool   `json:"isImage,omitempty"`
	IsTyping         bool   `json:"isTyping,omitempty"`
}

// ParseClientEvent decodes an inbound frame and validates its type tag.
func ParseClientEvent(data []byte) (ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ClientEvent{}, fmt.Errorf("decode client event: %w", err)
	}
	switch ev.Type {
	case EventMatchRequest, EventCancelMatch, EventEndChat, EventMessage, EventTyping, EventVerifyChat:
		return ev, nil
	default:
		return ClientEvent{}, fmt.Errorf("unrecognized event type %q", ev.Type)
	}
}

// MatchFound notifies a user that a partner was found.
type MatchFound struct {
	Type            string `json:"type"`
	ChatID          string `json:"chatId"`
	PartnerNickname string `json:"partnerNickname"`
	PartnerGender   Gender `json:"partnerGender"`
}

// SystemMessage carries an informational notice.
type SystemMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// UserDisconnected tells the remaining participant that their partner left.
// IsReconnecting is true while the partner may still resume the session.
type UserDisconnected struct {
	Type           string `json:"type"`
	ChatID         string `json:"chatId"`
	IsReconnecting bool   `json:"isReconnecting"`
}

// NewMessage is a relayed chat message.
type NewMessage struct {
	Type           string `json:"type"`
	ChatID         string `json:"chatId"`
	Content        string `json:"content"`
	IsImage        bool   `json:"isImage"`
	SenderNickname string `json:"senderNickname"`
}

// TypingStatus is a relayed typing indicator.
type TypingStatus struct {
	Type     string `json:"type"`
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// ChatVerified is the successful verify_chat response. The Self fields let a
// reconnecting client restore its own displayed profile.
type ChatVerified struct {
	Type            string `json:"type"`
	ChatID          string `json:"chatId"`
	PartnerNickname string `json:"partnerNickname"`
	PartnerGender   Gender `json:"partnerGender"`
	SelfNickname    string `json:"selfNickname,omitempty"`
	SelfGender      Gender `json:"selfGender,omitempty"`
}

// ChatInvalid is the verify_chat failure response.
type ChatInvalid struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	Reason string `json:"reason"`
}

func NewMatchFound(chatID, partnerNickname string, partnerGender Gender) MatchFound {
	return MatchFound{Type: EventMatchFound, ChatID: chatID, PartnerNickname: partnerNickname, PartnerGender: partnerGender}
}

func NewSystemMessage(content string) SystemMessage {
	return SystemMessage{Type: EventSystemMessage, Content: content}
}

func NewUserDisconnected(chatID string, isReconnecting bool) UserDisconnected {
	return UserDisconnected{Type: EventUserDisconnected, ChatID: chatID, IsReconnecting: isReconnecting}
}

func NewChatMessage(chatID, content string, isImage bool, senderNickname string) NewMessage {
	return NewMessage{Type: EventNewMessage, ChatID: chatID, Content: content, IsImage: isImage, SenderNickname: senderNickname}
}

func NewTypingStatus(chatID string, isTyping bool) TypingStatus {
	return TypingStatus{Type: EventTypingStatus, ChatID: chatID, IsTyping: isTyping}
}

func NewChatVerified(chatID, partnerNickname string, partnerGender Gender) ChatVerified {
	return ChatVerified{Type: EventChatVerified, ChatID: chatID, PartnerNickname: partnerNickname, PartnerGender: partnerGender}
}

func NewChatInvalid(chatID, reason string) ChatInvalid {
	return ChatInvalid{Type: EventChatInvalid, ChatID: chatID, Reason: reason}
}
