// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all payload encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/voicestream/pkg/audio/decode"
)

// Encoder converts mono samples to a base64 chunk payload
type Encoder interface {
	// Encode returns the base64 payload for samples
	Encode(samples []float32) string

	// Encoding returns the encoding name this encoder produces
	Encoding() string
}

// New creates an encoder for the named encoding. An empty name selects f32le.
func New(encoding string) (Encoder, error) {
	switch encoding {
	case "", decode.EncodingFloat32:
		return Float32Encoder{}, nil
	case decode.EncodingPCM16:
		return PCM16Encoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s (supported: %s, %s)",
			encoding, decode.EncodingFloat32, decode.EncodingPCM16)
	}
}
