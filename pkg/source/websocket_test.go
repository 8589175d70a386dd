// ABOUTME: Tests for the websocket chunk reader
// ABOUTME: Runs an httptest websocket server that streams events
package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

func wsServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketReader(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"audio_chunk":{"data":"AAAA","sample_rate":22050}}`))
		conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"choices":[{"delta":{"audio_chunk":"BBBB"}}]}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`[DONE]`))
		conn.ReadMessage()
	})

	r, err := Open(context.Background(), Options{Kind: KindWebSocket, URL: url, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer r.Close()

	chunks := readAll(t, r)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %+v", chunks)
	}
	if chunks[0].SampleRate != 22050 || chunks[1].Data != "BBBB" || chunks[1].SampleRate != 24000 {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestWebSocketReaderNormalClose(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"audio_chunk":"AAAA"}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})

	r, err := DialWebSocket(context.Background(), url, log.New(io.Discard))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer r.Close()

	if chunks := readAll(t, r); len(chunks) != 1 {
		t.Errorf("expected 1 chunk before close, got %d", len(chunks))
	}
}

func TestWebSocketReaderCancel(t *testing.T) {
	release := make(chan struct{})
	url := wsServer(t, func(conn *websocket.Conn) {
		<-release
	})
	defer close(release)

	r, err := DialWebSocket(context.Background(), url, log.New(io.Discard))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := r.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
