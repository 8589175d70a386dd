// ABOUTME: Audio type definitions
// ABOUTME: Defines mono sample buffers and duration/frame conversions
package audio

import (
	"math"
	"time"
)

// DefaultSampleRate is the rate speech synthesis chunks arrive at unless told otherwise
const DefaultSampleRate = 24000

// Buffer represents decoded mono PCM audio
type Buffer struct {
	Samples    []float32 // One sample per frame, nominally in [-1, 1]
	SampleRate int
}

// Len returns the number of frames in the buffer
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Empty reports whether the buffer has nothing to play
func (b Buffer) Empty() bool {
	return len(b.Samples) == 0 || b.SampleRate <= 0
}

// Duration returns how long the buffer plays for
func (b Buffer) Duration() time.Duration {
	return FramesToDuration(len(b.Samples), b.SampleRate)
}

// FramesToDuration converts a frame count at a sample rate to a duration
func FramesToDuration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// DurationToFrames converts a duration to the nearest frame index at a sample rate
func DurationToFrames(d time.Duration, sampleRate int) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}

// FloatToInt16 converts a float sample to int16 with clipping
func FloatToInt16(sample float32) int16 {
	if sample >= 1 {
		return math.MaxInt16
	}
	if sample <= -1 {
		return math.MinInt16
	}
	return int16(sample * math.MaxInt16)
}

// Int16ToFloat converts an int16 sample to the float range [-1, 1)
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768.0
}

// Clip clamps a float sample into [-1, 1]
func Clip(sample float32) float32 {
	if sample > 1 {
		return 1
	}
	if sample < -1 {
		return -1
	}
	return sample
}
