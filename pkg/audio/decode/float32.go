// ABOUTME: Float32 payload decoder
// ABOUTME: Decodes base64 32-bit little-endian float samples
package decode

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// Float32Decoder decodes f32le payloads
type Float32Decoder struct{}

// Decode implements Decoder
func (Float32Decoder) Decode(encoded string) []float32 {
	return Float32Base64(encoded)
}

// Encoding implements Decoder
func (Float32Decoder) Encoding() string {
	return EncodingFloat32
}

// Float32Base64 decodes a base64 payload of 32-bit little-endian floats.
// Misaligned payloads are not corrected; they decode to no samples.
func Float32Base64(encoded string) []float32 {
	data, ok := decodeBase64(encoded)
	if !ok || len(data)%4 != 0 {
		return []float32{}
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}

// decodeBase64 accepts padded and unpadded standard encodings
func decodeBase64(encoded string) ([]byte, bool) {
	if encoded == "" {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, false
		}
	}
	return data, len(data) > 0
}
