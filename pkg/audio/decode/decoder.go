// ABOUTME: Decoder interface definition
// ABOUTME: Selects a payload decoder by encoding name
package decode

import "fmt"

const (
	// EncodingFloat32 is 32-bit float little-endian samples
	EncodingFloat32 = "f32le"
	// EncodingPCM16 is 16-bit signed little-endian samples
	EncodingPCM16 = "s16le"
)

// Decoder converts an encoded chunk payload to mono samples
type Decoder interface {
	// Decode returns the samples in the payload, or an empty slice if it is malformed
	Decode(encoded string) []float32

	// Encoding returns the encoding name this decoder handles
	Encoding() string
}

// New creates a decoder for the named encoding. An empty name selects f32le.
func New(encoding string) (Decoder, error) {
	switch encoding {
	case "", EncodingFloat32:
		return Float32Decoder{}, nil
	case EncodingPCM16:
		return PCM16Decoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s (supported: %s, %s)", encoding, EncodingFloat32, EncodingPCM16)
	}
}
