// ABOUTME: Payload encoder package for building chunk payloads
// ABOUTME: Provides the Encoder interface and f32le, s16le implementations
// Package encode turns mono float samples into base64 chunk payloads.
//
// Supports: f32le (32-bit float), s16le (16-bit PCM)
//
// It is the inverse of package decode and is used by synthetic sources.
//
// Example:
//
//	encoder, err := encode.New("s16le")
//	payload := encoder.Encode(samples)
package encode
