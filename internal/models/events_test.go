package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientEvent(t *testing.T) {
	ev, err := ParseClientEvent([]byte(`{"type":"match_request","nickname":"alice","gender":"female","genderPreference":"any"}`))
	require.NoError(t, err)
	assert.Equal(t, EventMatchRequest, ev.Type)
	assert.Equal(t, "alice", ev.Nickname)
	assert.Equal(t, "female", ev.Gender)

	ev, err = ParseClientEvent([]byte(`{"type":"typing","chatId":"c1","isTyping":true}`))
	require.NoError(t, err)
	assert.True(t, ev.IsTyping)
	assert.Equal(t, "c1", ev.ChatID)
}

func TestParseClientEventRejectsUnknownType(t *testing.T) {
	_, err := ParseClientEvent([]byte(`{"type":"take_over_the_server"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized event type")
}

func TestParseClientEventRejectsMalformedJSON(t *testing.T) {
	_, err := ParseClientEvent([]byte(`{"type":`))
	require.Error(t, err)
}

func TestServerEventWireShape(t *testing.T) {
	payload, err := json.Marshal(NewUserDisconnected("c1", false))
	require.NoError(t, err)
	// The reconnecting flag must be present even when false.
	assert.JSONEq(t, `{"type":"user_disconnected","chatId":"c1","isReconnecting":false}`, string(payload))

	payload, err = json.Marshal(NewMatchFound("c2", "bob", GenderMale))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"match_found","chatId":"c2","partnerNickname":"bob","partnerGender":"male"}`, string(payload))
}
