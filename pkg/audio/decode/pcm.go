// ABOUTME: PCM16 payload decoder
// ABOUTME: Decodes base64 16-bit little-endian PCM to float samples
package decode

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
)

// PCM16Decoder decodes s16le payloads
type PCM16Decoder struct{}

// Decode implements Decoder
func (PCM16Decoder) Decode(encoded string) []float32 {
	return PCM16Base64(encoded)
}

// Encoding implements Decoder
func (PCM16Decoder) Encoding() string {
	return EncodingPCM16
}

// PCM16Base64 decodes a base64 payload of 16-bit little-endian samples.
// An odd byte length decodes to no samples.
func PCM16Base64(encoded string) []float32 {
	data, ok := decodeBase64(encoded)
	if !ok || len(data)%2 != 0 {
		return []float32{}
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}
