// ABOUTME: Server-sent event chunk reader
// ABOUTME: Joins the "data:" lines of each text/event-stream event into chunks
package source

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// SSEReader reads chunks from a server-sent event stream
type SSEReader struct {
	reader *bufio.Reader
	body   io.Closer
	logger *log.Logger
	done   bool
}

// NewSSEReader creates a reader over r. If r is an io.Closer, Close closes it.
func NewSSEReader(r io.Reader, logger *log.Logger) *SSEReader {
	if logger == nil {
		logger = log.Default()
	}

	s := &SSEReader{
		reader: bufio.NewReader(r),
		logger: logger.WithPrefix("sse"),
	}
	if c, ok := r.(io.Closer); ok {
		s.body = c
	}
	return s
}

// Next returns the next chunk, or io.EOF once the stream is done
func (s *SSEReader) Next(ctx context.Context) (Chunk, error) {
	for {
		if s.done {
			return Chunk{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return Chunk{}, err
		}

		payload, err := s.readEvent()
		if err != nil {
			if err == io.EOF {
				s.done = true
			}
			return Chunk{}, err
		}

		if strings.TrimSpace(payload) == doneMarker {
			s.done = true
			return Chunk{}, io.EOF
		}

		chunk, ok, perr := parseEvent([]byte(payload))
		if perr != nil {
			s.logger.Debug("Skipping malformed event", "err", perr)
			continue
		}
		if ok {
			return chunk, nil
		}
	}
}

// readEvent collects the data lines of one event up to the blank line that
// ends it and joins them with newlines. Events without data are skipped.
func (s *SSEReader) readEvent() (string, error) {
	var data []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		eof := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}

		if line == "" || eof {
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			if eof {
				return "", io.EOF
			}
		}
	}
}

// Close closes the underlying body
func (s *SSEReader) Close() error {
	s.done = true
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
