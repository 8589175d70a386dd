// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the mono float32 Buffer and sample conversion helpers
// Package audio provides the fundamental audio types used by voicestream.
//
// A Buffer is a run of mono float32 samples at a fixed sample rate. Buffers are
// produced by the decode package from synthesis chunks and consumed by the
// stream scheduler and the output backends.
//
// Example:
//
//	buf := audio.Buffer{Samples: samples, SampleRate: 24000}
//	d := buf.Duration() // time.Duration covered by the samples
package audio
