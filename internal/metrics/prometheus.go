// ABOUTME: Prometheus metrics for the playback engine
// ABOUTME: Implements the player Recorder with counters and gauges
package metrics

import (
	"sync"

	"github.com/Resonate-Protocol/voicestream/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for voicestream
type Metrics struct {
	// Chunk metrics
	ChunksAccepted prometheus.Counter
	ChunksRejected prometheus.Counter

	// Playback metrics
	Interrupts       prometheus.Counter
	SessionsCreated  prometheus.Counter
	NodesCompleted   prometheus.Counter
	NodesHalted      prometheus.Counter
	ActiveNodes      prometheus.Gauge
	ScheduledSeconds prometheus.Gauge
	State            *prometheus.GaugeVec

	// last totals already added to the counters fed from stream.Stats
	mu            sync.Mutex
	lastSessions  int64
	lastCompleted int64
	lastHalted    int64
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// Chunk metrics
		ChunksAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_chunks_accepted_total",
			Help: "Total number of audio chunks scheduled for playback",
		}),
		ChunksRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_chunks_rejected_total",
			Help: "Total number of audio chunks rejected as empty or unplayable",
		}),

		// Playback metrics
		Interrupts: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_interrupts_total",
			Help: "Total number of playback interruptions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_sessions_created_total",
			Help: "Total number of output sessions opened",
		}),
		NodesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_nodes_completed_total",
			Help: "Total number of scheduled buffers that played to the end",
		}),
		NodesHalted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicestream_nodes_halted_total",
			Help: "Total number of scheduled buffers cut off before the end",
		}),
		ActiveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicestream_active_nodes",
			Help: "Current number of scheduled buffers not yet finished",
		}),
		ScheduledSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicestream_scheduled_seconds",
			Help: "Total seconds of audio scheduled since start",
		}),
		State: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "voicestream_playback_state",
			Help: "Current playback state (1 for the active state)",
		}, []string{"state"}),
	}

	m.StateChanged(stream.StateIdle)
	return m
}

// ChunkAccepted increments the accepted chunks counter
func (m *Metrics) ChunkAccepted() {
	m.ChunksAccepted.Inc()
}

// ChunkRejected increments the rejected chunks counter
func (m *Metrics) ChunkRejected() {
	m.ChunksRejected.Inc()
}

// Interrupted increments the interrupts counter
func (m *Metrics) Interrupted() {
	m.Interrupts.Inc()
}

// StateChanged marks st as the active playback state
func (m *Metrics) StateChanged(st stream.State) {
	for _, s := range []stream.State{stream.StateIdle, stream.StatePlaying, stream.StateInterrupted} {
		v := 0.0
		if s == st {
			v = 1
		}
		m.State.WithLabelValues(s.String()).Set(v)
	}
}

// ObserveStats updates gauges and advances counters to the scheduler totals
func (m *Metrics) ObserveStats(s stream.Stats) {
	m.ActiveNodes.Set(float64(s.Active))
	m.ScheduledSeconds.Set(s.Scheduled.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSessions = advance(m.SessionsCreated, m.lastSessions, s.Sessions)
	m.lastCompleted = advance(m.NodesCompleted, m.lastCompleted, s.Completed)
	m.lastHalted = advance(m.NodesHalted, m.lastHalted, s.Halted)
}

// advance adds the growth from last to total and returns the new last value
func advance(c prometheus.Counter, last, total int64) int64 {
	if total > last {
		c.Add(float64(total - last))
		return total
	}
	return last
}
