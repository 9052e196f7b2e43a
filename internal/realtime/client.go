package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxInboundSize = 4096
	sendBuffer     = 64
)

// Client is one websocket subscriber. The feed is server to client only;
// inbound frames other than control frames are discarded.
type Client struct {
	formID uuid.UUID
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan Message
}

// OriginChecker allows requests without an Origin header, requests from
// baseURL, and any origin in dev.
func OriginChecker(baseURL string, isDev bool) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || isDev {
			return true
		}
		return strings.EqualFold(strings.TrimRight(origin, "/"), baseURL)
	}
}

// Serve upgrades the request and runs the client until the connection closes.
func Serve(hub *Hub, checkOrigin func(*http.Request) bool, w http.ResponseWriter, r *http.Request, formID, userID uuid.UUID) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &Client{
		formID: formID,
		userID: userID,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
	}
	hub.Register(c)

	go c.writePump()
	c.readPump(hub)
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("form_id", c.formID.String()).Msg("Live subscriber disconnected")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
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
