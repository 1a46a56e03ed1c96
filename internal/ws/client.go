package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lizhongyi/aqiang-chat/internal/hub"
	"github.com/lizhongyi/aqiang-chat/internal/models"
	"github.com/lizhongyi/aqiang-chat/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Client adapts one websocket connection to the hub's Conn interface. All
// outbound traffic goes through the buffered send channel and a single
// write pump, so hub code never blocks on a slow peer.
type Client struct {
	id   string
	hub  *hub.Hub
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
	log  *logrus.Entry
}

var _ hub.Conn = (*Client)(nil)

// NewClient wraps an upgraded websocket connection.
func NewClient(h *hub.Hub, conn *websocket.Conn) *Client {
	id := newConnID()
	return &Client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
		log:  logrus.WithField("connID", id),
	}
}

// ID implements hub.Conn.
func (c *Client) ID() string { return c.id }

// Send queues an event for delivery. It never blocks: when the peer cannot
// keep up the event is dropped and counted.
func (c *Client) Send(event any) {
	select {
	case <-c.done:
	case c.send <- event:
	default:
		c.log.Warn("send buffer full, dropping event")
		observability.IncWSEvent("ws_dropped")
	}
}

// Connected implements hub.Conn.
func (c *Client) Connected() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close tears down the transport. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Run starts the pumps and blocks until the connection is gone.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.hub.HandleDisconnect(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.WithError(err).Debug("websocket read error")
			}
			return
		}

		event, err := models.ParseClientEvent(data)
		if err != nil {
			c.log.WithError(err).Warn("dropping malformed frame")
			observability.IncWSEvent("ws_rejected")
			continue
		}
		c.dispatch(event)
	}
}

// dispatch routes one inbound event into the hub. A panic in a handler is
// contained here so one bad event cannot take down the read loop or other
// sessions.
func (c *Client) dispatch(event models.ClientEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("event", event.Type).Errorf("event handler panic: %v", r)
		}
	}()

	observability.IncWSEvent(event.Type)
	switch event.Type {
	case models.EventMatchRequest:
		c.hub.RequestMatch(c, event.Nickname, event.Gender, event.GenderPreference)
	case models.EventCancelMatch:
		c.hub.CancelMatch(c)
	case models.EventEndChat:
		c.hub.EndChat(event.ChatID, c)
	case models.EventMessage:
		c.hub.RelayMessage(event.ChatID, c, event.Content, event.IsImage)
	case models.EventTyping:
		c.hub.RelayTyping(event.ChatID, c, event.IsTyping)
	case models.EventVerifyChat:
		c.hub.VerifyChat(event.ChatID, c)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(event)
			if err != nil {
				c.log.WithError(err).Error("encode outbound event")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.WithError(err).Debug("websocket write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
