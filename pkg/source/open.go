// ABOUTME: Source construction from a kind and URL
// ABOUTME: Opens an HTTP event stream or a websocket connection
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Source kinds accepted by Open
const (
	KindSSE       = "sse"
	KindWebSocket = "websocket"
	KindTone      = "tone"
)

// Options describes where chunks come from
type Options struct {
	Kind string
	URL  string

	// Text, when set, is POSTed to an SSE endpoint as a streaming chat
	// completion request; otherwise the stream is fetched with GET.
	Text string

	Client *http.Client
	Logger *log.Logger
}

// Open connects to a chunk source
func Open(ctx context.Context, opts Options) (Reader, error) {
	switch opts.Kind {
	case "", KindSSE:
		return openSSE(ctx, opts)
	case KindWebSocket:
		return DialWebSocket(ctx, opts.URL, opts.Logger)
	case KindTone:
		return NewTone(ToneConfig{Jitter: 150 * time.Millisecond})
	default:
		return nil, fmt.Errorf("%w: %s (supported: sse, websocket, tone)", ErrUnsupportedKind, opts.Kind)
	}
}

func openSSE(ctx context.Context, opts Options) (*SSEReader, error) {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	method := http.MethodGet
	var body io.Reader
	if opts.Text != "" {
		payload, err := json.Marshal(chatRequest(opts.Text))
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		method = http.MethodPost
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return NewSSEReader(resp.Body, opts.Logger), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest builds a streaming speech request in the chat completions shape
func chatRequest(text string) map[string]any {
	return map[string]any{
		"model":      "",
		"messages":   []chatMessage{{Role: "user", Content: text}},
		"stream":     true,
		"max_tokens": 512,
	}
}
