package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Deadlines for live-dashboard connections. Reads are generous since a
// dashboard may sit idle between pings; writes that stall this long mean
// the peer is gone.
const (
	writeTimeout = 10 * time.Second
	readTimeout  = 5 * time.Minute
)

// WriteTyped sends one typed event frame under the write deadline.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next client frame into v under the read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	return conn.ReadJSON(v)
}
