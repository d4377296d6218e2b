package ws

import (
	"context"
	"time"

	"dexscreener_stream/models"

	"github.com/gorilla/websocket"
)

// Client wraps one accepted subscriber connection. Data frames are written
// only by the session goroutine; control frames go through WriteControl,
// which gorilla allows concurrently with other writes.
type Client struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newClient(conn *websocket.Conn, writeTimeout time.Duration) *Client {
	return &Client{conn: conn, writeTimeout: writeTimeout}
}

// Send writes rec as one JSON text message.
func (c *Client) Send(ctx context.Context, rec models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(rec)
}

func (c *Client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *Client) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	c.conn.Close()
}

// readPump discards client frames and returns when the connection drops.
// Any pong pushes the read deadline forward.
func (c *Client) readPump(idle time.Duration, onClose func()) {
	defer onClose()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(idle))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// heartbeat pings until ctx is done or a ping fails.
func (c *Client) heartbeat(ctx context.Context, every time.Duration, onFail func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				onFail()
				return
			}
		}
	}
}
