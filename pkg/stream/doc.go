// ABOUTME: Gapless stream scheduler for incrementally arriving speech audio
// ABOUTME: Provides the Scheduler and the idle/playing/interrupted state machine
// Package stream schedules synthesis chunks for gapless playback.
//
// Every chunk is placed exactly where the previous one ends on the output
// context clock. The scheduler tracks every node that has been submitted and
// not yet finished so that Interrupt can silence all of them at once.
//
// Playback state is one of idle, playing and interrupted. Listeners registered
// with OnStateChange are told about every transition exactly once, in order.
//
// Example:
//
//	s := stream.NewScheduler(output.NewOto(48000, nil), stream.Config{})
//	s.OnStateChange(func(st stream.State) { log.Print(st) })
//	for chunk := range chunks {
//	    s.Enqueue(chunk.Data, chunk.SampleRate)
//	}
//	s.Interrupt() // user barged in
package stream
