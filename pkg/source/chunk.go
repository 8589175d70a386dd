// ABOUTME: Chunk type and event parsing shared by the readers
// ABOUTME: Extracts base64 audio and sample rate from a JSON event payload
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
)

// doneMarker terminates a stream
const doneMarker = "[DONE]"

// ErrUnsupportedKind is returned by Open for an unknown source kind
var ErrUnsupportedKind = errors.New("unsupported source kind")

// Chunk is one piece of synthesized audio
type Chunk struct {
	Data       string // base64 encoded samples
	SampleRate int
	Text       string // transcript delta carried by the same event, if any
}

// Reader yields chunks until the stream ends with io.EOF
type Reader interface {
	Next(ctx context.Context) (Chunk, error)
	Close() error
}

type audioChunk struct {
	Data       string `json:"data"`
	SampleRate int    `json:"sample_rate"`
}

// UnmarshalJSON accepts a bare base64 string or a {data, sample_rate} object
func (a *audioChunk) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		a.Data = s
		return nil
	}

	type plain audioChunk
	return json.Unmarshal(b, (*plain)(a))
}

type choiceBody struct {
	Content    string      `json:"content"`
	AudioChunk *audioChunk `json:"audio_chunk"`
}

type event struct {
	AudioChunk *audioChunk `json:"audio_chunk"`
	Choices    []struct {
		Delta   *choiceBody `json:"delta"`
		Message *choiceBody `json:"message"`
	} `json:"choices"`
}

// parseEvent extracts a chunk from one event payload. ok is false when the
// event carries neither audio nor text.
func parseEvent(payload []byte) (Chunk, bool, error) {
	var ev event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Chunk{}, false, fmt.Errorf("failed to parse event: %w", err)
	}

	var chunk Chunk
	ac := ev.AudioChunk
	if len(ev.Choices) > 0 {
		for _, body := range []*choiceBody{ev.Choices[0].Delta, ev.Choices[0].Message} {
			if body == nil {
				continue
			}
			if ac == nil {
				ac = body.AudioChunk
			}
			if chunk.Text == "" {
				chunk.Text = body.Content
			}
		}
	}

	if ac != nil {
		chunk.Data = ac.Data
		chunk.SampleRate = ac.SampleRate
	}
	if chunk.SampleRate <= 0 {
		chunk.SampleRate = audio.DefaultSampleRate
	}

	if chunk.Data == "" && chunk.Text == "" {
		return Chunk{}, false, nil
	}
	return chunk, true, nil
}
