package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lizhongyi/aqiang-chat/internal/hub"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := hub.New(hub.Policies{}, nil, nil)
	router := gin.New()
	router.GET("/ws", NewHandler(h).Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]any
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func send(t *testing.T, conn *websocket.Conn, event map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(event))
}

func TestMatchAndRelayOverWebsocket(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, map[string]any{"type": "match_request", "nickname": "alice", "gender": "female", "genderPreference": "any"})
	waiting := readEvent(t, alice)
	assert.Equal(t, "system_message", waiting["type"])

	send(t, bob, map[string]any{"type": "match_request", "nickname": "bob", "gender": "male", "genderPreference": "female"})

	aliceMatch := readEvent(t, alice)
	bobMatch := readEvent(t, bob)
	require.Equal(t, "match_found", aliceMatch["type"])
	require.Equal(t, "match_found", bobMatch["type"])
	assert.Equal(t, aliceMatch["chatId"], bobMatch["chatId"])
	assert.Equal(t, "bob", aliceMatch["partnerNickname"])
	assert.Equal(t, "alice", bobMatch["partnerNickname"])

	chatID := aliceMatch["chatId"].(string)
	send(t, alice, map[string]any{"type": "message", "chatId": chatID, "content": "hi", "isImage": false})

	received := readEvent(t, bob)
	require.Equal(t, "new_message", received["type"])
	assert.Equal(t, "hi", received["content"])
	assert.Equal(t, "alice", received["senderNickname"])
}

func TestMalformedFrameIsDroppedNotFatal(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus_event"}`)))

	// The connection survives and still handles valid traffic.
	send(t, conn, map[string]any{"type": "match_request", "nickname": "solo"})
	event := readEvent(t, conn)
	assert.Equal(t, "system_message", event["type"])
}
