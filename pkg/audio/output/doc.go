// ABOUTME: Audio output package for scheduled playback
// ABOUTME: Provides Device/Context/Node interfaces and oto, malgo and virtual backends
// Package output provides clock-bearing audio output contexts.
//
// A Device opens one Context per playback session at the session's sample
// rate. A Context exposes a monotonic clock and accepts sample buffers with a
// committed start time on that clock; each scheduled buffer becomes a Node
// that reports completion through a callback.
//
// Completion callbacks are delivered from a single dispatch goroutine per
// device. They are never invoked from inside Schedule, Stop or Close, so a
// caller may hold its own lock across those calls.
//
// Backends:
//   - Oto: ebitengine/oto, one process-wide context fed by a software mixer
//   - Malgo: miniaudio via malgo, callback-driven device fed by the same mixer
//   - Virtual: manually advanced clock for tests and dry runs
//
// Example:
//
//	dev := output.NewOto(48000)
//	ctx, err := dev.Open(24000)
//	node, err := ctx.Schedule(samples, ctx.CurrentTime(), func() { /* done */ })
//	node.Stop()
package output
