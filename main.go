// ABOUTME: Entry point for the voicestream player
// ABOUTME: Parses config and flags, then plays a streamed speech source
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/voicestream/internal/config"
	"github.com/Resonate-Protocol/voicestream/internal/metrics"
	"github.com/Resonate-Protocol/voicestream/internal/ui"
	"github.com/Resonate-Protocol/voicestream/internal/version"
	"github.com/Resonate-Protocol/voicestream/pkg/source"
	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	"github.com/Resonate-Protocol/voicestream/pkg/voicestream"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var (
	configPath  = flag.String("config", "voicestream.yaml", "Config file path (missing file uses defaults)")
	sourceURL   = flag.String("url", "", "Chunk source URL")
	sourceKind  = flag.String("kind", "", "Source kind: sse, websocket or tone")
	text        = flag.String("text", "", "Text to synthesize (POSTed to an sse source)")
	backend     = flag.String("backend", "", "Output backend: oto, malgo or virtual")
	deviceRate  = flag.Int("device-rate", 0, "Output device sample rate")
	encoding    = flag.String("encoding", "", "Chunk payload encoding: f32le or s16le")
	volume      = flag.Int("volume", -1, "Initial volume (0-100)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile     = flag.String("log-file", "", "Log file path")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn or error")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(cfg.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	var out io.Writer = f
	if !useTUI {
		// Streaming logs mode: log to both stderr and file
		out = io.MultiWriter(os.Stderr, f)
	}

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           level,
	})
	log.SetDefault(logger)

	if err := run(cfg, logger, useTUI); err != nil {
		logger.Error("Player failed", "err", err)
		if useTUI {
			fmt.Fprintf(os.Stderr, "Player failed: %v\n", err)
		}
		os.Exit(1)
	}

	logger.Info("Player stopped")
}

// loadConfig reads the config file and applies explicitly set flags on top
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "url":
			cfg.Source.URL = *sourceURL
		case "kind":
			cfg.Source.Kind = *sourceKind
		case "text":
			cfg.Source.Text = *text
		case "backend":
			cfg.Output.Backend = *backend
		case "device-rate":
			cfg.Output.DeviceRate = *deviceRate
		case "encoding":
			cfg.Playback.Encoding = *encoding
		case "volume":
			cfg.Output.Volume = *volume
		case "metrics-addr":
			cfg.Metrics.Enabled = true
			cfg.Metrics.Address = *metricsAddr
		case "log-file":
			cfg.Logging.File = *logFile
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Source.URL == "" && cfg.Source.Kind != source.KindTone {
		return nil, errors.New("a source url is required (set source.url or -url)")
	}
	return cfg, nil
}

func run(cfg *config.Config, logger *log.Logger, useTUI bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting player", "product", version.Product, "version", version.Version,
		"source", cfg.Source.URL, "kind", cfg.Source.Kind, "backend", cfg.Output.Backend)

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		var err error
		tuiProg, err = ui.Run(controls, cfg.Output.Volume)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	var recorder voicestream.Recorder
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		recorder = metrics.NewMetrics(registry)
	}

	player, err := voicestream.NewPlayer(voicestream.PlayerConfig{
		Backend:      cfg.Output.Backend,
		DeviceRate:   cfg.Output.DeviceRate,
		Encoding:     cfg.Playback.Encoding,
		SafetyMargin: cfg.Playback.GetSafetyMargin(),
		Volume:       cfg.Output.Volume,
		Recorder:     recorder,
		Logger:       logger,
		OnStateChange: func(st stream.State) {
			logger.Debug("Playback state", "state", st)
			updateTUI(ui.StatusMsg{State: &st})
		},
		OnError: func(err error) {
			logger.Warn("Player error", "err", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	defer player.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return streamChunks(gctx, cfg, player, logger, updateTUI, useTUI, cancel)
	})

	if registry != nil {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Address, registry, logger)
		})
	}

	if tuiProg != nil {
		g.Go(func() error {
			_, err := tuiProg.Run()
			cancel()
			return err
		})
		g.Go(func() error {
			handleControls(gctx, player, controls, logger)
			return nil
		})
		g.Go(func() error {
			statsUpdateLoop(gctx, player, updateTUI)
			return nil
		})
	}

	// Handle shutdown
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig)
			player.Interrupt()
			cancel()
		case <-gctx.Done():
		}
		if tuiProg != nil {
			tuiProg.Quit()
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// streamChunks reads the source and enqueues every chunk. Without a TUI the
// player exits once the stream ends and the audio has drained.
func streamChunks(ctx context.Context, cfg *config.Config, player *voicestream.Player, logger *log.Logger,
	updateTUI func(ui.StatusMsg), useTUI bool, done context.CancelFunc) error {
	reader, err := source.Open(ctx, source.Options{
		Kind:   cfg.Source.Kind,
		URL:    cfg.Source.URL,
		Text:   cfg.Source.Text,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer reader.Close()

	connected := true
	updateTUI(ui.StatusMsg{Connected: &connected, Source: sourceName(cfg)})
	logger.Info("Source connected", "source", sourceName(cfg))

	chunks := 0
	for {
		chunk, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("source read failed: %w", err)
		}

		if chunk.Text != "" {
			updateTUI(ui.StatusMsg{Text: chunk.Text})
		}
		if chunk.Data == "" {
			continue
		}

		rate := chunk.SampleRate
		if rate == 0 {
			rate = cfg.Playback.SampleRate
		}
		if player.Enqueue(chunk.Data, rate) {
			chunks++
		}
	}

	logger.Info("Source finished", "chunks", chunks)
	disconnected := false
	updateTUI(ui.StatusMsg{Connected: &disconnected})

	if useTUI {
		return nil
	}

	// Wait for the scheduled audio to drain, then exit
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	player.Stop()
	done()
	return nil
}

func sourceName(cfg *config.Config) string {
	if cfg.Source.Kind == source.KindTone {
		return "test tone"
	}
	return cfg.Source.URL
}

// serveMetrics exposes the registry until ctx is cancelled
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// handleControls processes volume changes and playback actions from TUI
func handleControls(ctx context.Context, player *voicestream.Player, controls *ui.Controls, logger *log.Logger) {
	for {
		select {
		case vol := <-controls.Changes:
			logger.Info("Volume change", "volume", vol.Volume, "muted", vol.Muted)
			player.SetVolume(vol.Volume)
			player.Mute(vol.Muted)
		case action := <-controls.Actions:
			switch action {
			case ui.ActionInterrupt:
				logger.Info("Interrupt requested")
				player.Interrupt()
			case ui.ActionStop:
				logger.Info("Stop requested")
				player.Stop()
			}
		case <-controls.Quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, player *voicestream.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			updateTUI(ui.StatusMsg{
				Goroutines: runtime.NumGoroutine(),
				MemAlloc:   m.Alloc,
			})

		case <-ticker.C:
			stats := player.Stats()
			status := player.Status()
			updateTUI(ui.StatusMsg{
				Stats:    &stats,
				Progress: status.Progress,
				Buffered: status.Buffered,
			})
		}
	}
}
