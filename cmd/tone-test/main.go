// ABOUTME: Test app to verify gapless playback by ear
// ABOUTME: Enqueues a sine tone in irregularly timed chunks, optionally interrupting it
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/voicestream/pkg/source"
	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	"github.com/Resonate-Protocol/voicestream/pkg/voicestream"
	"github.com/charmbracelet/log"
)

var (
	backend        = flag.String("backend", "oto", "Output backend: oto, malgo or virtual")
	frequency      = flag.Float64("freq", 440, "Tone frequency in Hz")
	sampleRate     = flag.Int("rate", 24000, "Chunk sample rate")
	duration       = flag.Duration("duration", 5*time.Second, "Total tone length")
	minChunk       = flag.Duration("min-chunk", 40*time.Millisecond, "Shortest chunk")
	maxChunk       = flag.Duration("max-chunk", 400*time.Millisecond, "Longest chunk")
	jitter         = flag.Duration("jitter", 150*time.Millisecond, "Max wait between chunks")
	encoding       = flag.String("encoding", "f32le", "Payload encoding: f32le or s16le")
	interruptAfter = flag.Duration("interrupt-after", 0, "Interrupt playback after this long (0 disables)")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           log.DebugLevel,
	})

	fmt.Println("=== Gapless Playback Test ===")
	fmt.Println("This test will:")
	fmt.Println("1. Generate a continuous sine tone")
	fmt.Println("2. Enqueue it in chunks of random length at random intervals")
	fmt.Println("3. Play it back; any click or dropout means a scheduling gap")
	fmt.Println()

	if err := run(logger); err != nil {
		logger.Fatal("Tone test failed", "err", err)
	}
	logger.Info("Test complete")
}

func run(logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	player, err := voicestream.NewPlayer(voicestream.PlayerConfig{
		Backend:  *backend,
		Encoding: *encoding,
		Logger:   logger,
		OnStateChange: func(st stream.State) {
			logger.Info("State changed", "state", st)
		},
	})
	if err != nil {
		return err
	}
	defer player.Close()

	tone, err := source.NewTone(source.ToneConfig{
		Frequency:  *frequency,
		SampleRate: *sampleRate,
		Duration:   *duration,
		MinChunk:   *minChunk,
		MaxChunk:   *maxChunk,
		Jitter:     *jitter,
		Encoding:   *encoding,
		Seed:       uint64(time.Now().UnixNano()),
	})
	if err != nil {
		return err
	}

	if *interruptAfter > 0 {
		timer := time.AfterFunc(*interruptAfter, func() {
			logger.Info("Interrupting playback")
			player.Interrupt()
			stop()
		})
		defer timer.Stop()
	}

	start := time.Now()
	chunks := 0
	for {
		chunk, err := tone.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !player.Enqueue(chunk.Data, chunk.SampleRate) {
			return fmt.Errorf("chunk %d rejected", chunks)
		}
		chunks++

		status := player.Status()
		logger.Debug("Enqueued chunk", "n", chunks, "buffered", status.Buffered, "progress", fmt.Sprintf("%.2f", status.Progress))
	}

	logger.Info("All chunks enqueued", "chunks", chunks, "elapsed", time.Since(start).Round(time.Millisecond))

	// The virtual clock never advances on its own
	if *backend == voicestream.BackendVirtual {
		return nil
	}

	// Wait for playback to drain
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	stats := player.Stats()
	logger.Info("Playback finished",
		"enqueued", stats.Enqueued, "completed", stats.Completed, "halted", stats.Halted,
		"scheduled", stats.Scheduled)
	return nil
}
