// ABOUTME: f32le and s16le payload encoders
// ABOUTME: Encode float samples to little-endian bytes wrapped in base64
package encode

import (
	"encoding/base64"
	"encoding/binary"
	"math"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/decode"
)

// Float32Encoder encodes f32le payloads
type Float32Encoder struct{}

// Encode implements Encoder
func (Float32Encoder) Encode(samples []float32) string {
	output := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(sample))
	}
	return base64.StdEncoding.EncodeToString(output)
}

// Encoding implements Encoder
func (Float32Encoder) Encoding() string {
	return decode.EncodingFloat32
}

// PCM16Encoder encodes s16le payloads, clipping samples outside [-1, 1]
type PCM16Encoder struct{}

// Encode implements Encoder
func (PCM16Encoder) Encode(samples []float32) string {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.FloatToInt16(sample)))
	}
	return base64.StdEncoding.EncodeToString(output)
}

// Encoding implements Encoder
func (PCM16Encoder) Encoding() string {
	return decode.EncodingPCM16
}
