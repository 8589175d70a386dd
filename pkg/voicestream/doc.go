// ABOUTME: High-level voicestream library API
// ABOUTME: Provides a Player that turns streamed speech chunks into gapless audio
// Package voicestream provides the high-level API for streamed speech playback.
//
// This is the main entry point for most library users, providing:
//   - Player: Enqueue chunks, interrupt, stop and observe playback state
//   - Recorder: Hook for exporting playback metrics
//
// For lower-level control, see the stream, audio/output and source packages.
//
// Example:
//
//	player, err := voicestream.NewPlayer(voicestream.PlayerConfig{
//	    Backend: "oto",
//	    OnStateChange: func(st stream.State) {
//	        fmt.Println("state:", st)
//	    },
//	})
//	player.Enqueue(chunk.Data, chunk.SampleRate)
//	player.Interrupt()
package voicestream
