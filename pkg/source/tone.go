// ABOUTME: Synthetic sine tone chunk source
// ABOUTME: Emits a continuous tone in irregularly sized and timed chunks
package source

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/audio"
	"github.com/Resonate-Protocol/voicestream/pkg/audio/encode"
)

// ToneConfig configures a ToneReader
type ToneConfig struct {
	Frequency  float64       // Hz (default: 440)
	SampleRate int           // Hz (default: 24000)
	Duration   time.Duration // total audio (default: 5s)
	MinChunk   time.Duration // shortest chunk (default: 40ms)
	MaxChunk   time.Duration // longest chunk (default: 400ms)
	Jitter     time.Duration // max extra wait between chunks (default: 0)
	Encoding   string        // payload encoding (default: f32le)
	Seed       uint64
}

// ToneReader generates a phase-continuous sine tone. Played gaplessly it
// sounds like one steady note; scheduling gaps are audible as clicks.
type ToneReader struct {
	config      ToneConfig
	encoder     encode.Encoder
	rng         *rand.Rand
	sampleIndex int
	total       int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewTone creates a tone reader
func NewTone(config ToneConfig) (*ToneReader, error) {
	if config.Frequency <= 0 {
		config.Frequency = 440.0 // A4 note
	}
	if config.SampleRate <= 0 {
		config.SampleRate = audio.DefaultSampleRate
	}
	if config.Duration <= 0 {
		config.Duration = 5 * time.Second
	}
	if config.MinChunk <= 0 {
		config.MinChunk = 40 * time.Millisecond
	}
	if config.MaxChunk < config.MinChunk {
		config.MaxChunk = max(config.MinChunk, 400*time.Millisecond)
	}

	encoder, err := encode.New(config.Encoding)
	if err != nil {
		return nil, err
	}

	return &ToneReader{
		config:  config,
		encoder: encoder,
		rng:     rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
		total:   int(audio.DurationToFrames(config.Duration, config.SampleRate)),
		sleep:   sleepContext,
	}, nil
}

// Next waits a random interval and returns the next slice of the tone
func (r *ToneReader) Next(ctx context.Context) (Chunk, error) {
	if r.sampleIndex >= r.total {
		return Chunk{}, io.EOF
	}

	if r.config.Jitter > 0 && r.sampleIndex > 0 {
		wait := time.Duration(r.rng.Int64N(int64(r.config.Jitter) + 1))
		if err := r.sleep(ctx, wait); err != nil {
			return Chunk{}, err
		}
	} else if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	length := r.config.MinChunk
	if spread := r.config.MaxChunk - r.config.MinChunk; spread > 0 {
		length += time.Duration(r.rng.Int64N(int64(spread) + 1))
	}
	frames := min(int(audio.DurationToFrames(length, r.config.SampleRate)), r.total-r.sampleIndex)
	frames = max(frames, 1)

	samples := make([]float32, frames)
	for i := range samples {
		t := float64(r.sampleIndex+i) / float64(r.config.SampleRate)
		samples[i] = float32(math.Sin(2*math.Pi*r.config.Frequency*t) * 0.5) // 50% volume
	}
	r.sampleIndex += frames

	return Chunk{
		Data:       r.encoder.Encode(samples),
		SampleRate: r.config.SampleRate,
	}, nil
}

// Close ends the tone
func (r *ToneReader) Close() error {
	r.sampleIndex = r.total
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
