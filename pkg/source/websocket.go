// ABOUTME: Websocket chunk reader
// ABOUTME: Reads JSON event messages from a gorilla/websocket connection
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// WebSocketReader reads chunks from websocket text messages
type WebSocketReader struct {
	conn   *websocket.Conn
	logger *log.Logger
	done   bool
}

// DialWebSocket connects to a websocket endpoint
func DialWebSocket(ctx context.Context, url string, logger *log.Logger) (*WebSocketReader, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewWebSocketReader(conn, logger), nil
}

// NewWebSocketReader wraps an established connection
func NewWebSocketReader(conn *websocket.Conn, logger *log.Logger) *WebSocketReader {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketReader{
		conn:   conn,
		logger: logger.WithPrefix("websocket"),
	}
}

// Next returns the next chunk, or io.EOF once the peer finishes the stream
func (w *WebSocketReader) Next(ctx context.Context) (Chunk, error) {
	// Cancelling ctx unblocks a pending read
	stop := context.AfterFunc(ctx, func() {
		w.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if w.done {
			return Chunk{}, io.EOF
		}

		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Chunk{}, ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.done = true
				return Chunk{}, io.EOF
			}
			return Chunk{}, fmt.Errorf("read failed: %w", err)
		}

		if msgType != websocket.TextMessage {
			continue
		}

		payload := strings.TrimSpace(string(data))
		if payload == doneMarker {
			w.done = true
			return Chunk{}, io.EOF
		}

		chunk, ok, perr := parseEvent([]byte(payload))
		if perr != nil {
			w.logger.Debug("Skipping malformed message", "err", perr)
			continue
		}
		if ok {
			return chunk, nil
		}
	}
}

// Close sends a close frame and closes the connection
func (w *WebSocketReader) Close() error {
	w.done = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		w.logger.Debug("Close frame not sent", "err", err)
	}
	return w.conn.Close()
}
