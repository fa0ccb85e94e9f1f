package viewer

import "github.com/gorilla/websocket"

// client is one connected browser.
type client struct {
	socket *websocket.Conn
	send   chan []byte
	room   *Room
}

// trySend queues a message for this client, dropping it if the client's
// buffer is full (slow consumer).
func (c *client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// read drains inbound messages until the connection dies. The viewer
// protocol is one-way; inbound payloads are ignored but the read loop is
// what notices the disconnect.
func (c *client) read() {
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			break
		}
	}
	c.socket.Close()
}

// write pumps the send channel to the socket.
func (c *client) write() {
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.socket.Close()
}
