// ABOUTME: Sample decoder package for synthesis chunk payloads
// ABOUTME: Turns base64 chunk payloads into mono float32 sample slices
// Package decode converts base64-encoded chunk payloads into float32 samples.
//
// Supported encodings:
//   - f32le: 32-bit IEEE-754 little-endian floats (the synthesis stream default)
//   - s16le: 16-bit signed little-endian PCM
//
// Decoders never fail. A payload that is not valid base64, or whose byte
// length is not a whole number of samples, decodes to an empty slice, which
// the stream scheduler rejects.
//
// Example:
//
//	samples := decode.Float32Base64(chunk.Data)
//	if len(samples) == 0 {
//	    // malformed chunk
//	}
package decode
