package stream

import (
	"context"

	"github.com/gorilla/websocket"
)

// Conn is one live connection to the analysis service's streaming endpoint.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Transport dials streaming connections. The production transport is a
// websocket dialer; tests substitute a scripted fake.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketTransport dials real websocket connections.
type WebSocketTransport struct {
	Dialer *websocket.Dialer
}

func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{Dialer: websocket.DefaultDialer}
}

func (t *WebSocketTransport) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
