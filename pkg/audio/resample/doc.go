// ABOUTME: Sample rate conversion package
// ABOUTME: Linear interpolation resampling for mono float32 audio
// Package resample converts mono float32 audio between sample rates.
//
// Output backends run at one fixed device rate while synthesis sessions may
// arrive at any rate, so every scheduled buffer is stretched to the exact
// number of device frames its slot covers. StretchFrom carries the last
// sample of the previous buffer so consecutive buffers join without a step.
//
// Example:
//
//	out := resample.StretchFrom(prevTail, samples, frames)
//	r := resample.New(24000, 48000)
//	resampled := !r.Passthrough()
package resample
