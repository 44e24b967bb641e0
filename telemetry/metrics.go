// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	RunCycles          prometheus.Counter
	RepliesPosted      prometheus.Counter
	NoCommandCycles    prometheus.Counter
	DedupSkips         prometheus.Counter
	EmptyReplies       prometheus.Counter
	GenerationFailures prometheus.Counter
	UpstreamFailures   prometheus.Counter

	// Histograms (seconds)
	RunCycleDuration prometheus.Observer

	// Gauges
	LastRunGauge prometheus.Gauge // unix seconds of the last completed cycle
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		RunCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_run_cycles_total", Help: "Number of run cycles started"})
		RepliesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_replies_posted_total", Help: "Number of replies posted to the live chat"})
		NoCommandCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_no_command_total", Help: "Number of cycles that found no triggering message"})
		DedupSkips = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_duplicate_skips_total", Help: "Number of cycles skipped because the trigger was already answered"})
		EmptyReplies = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_empty_replies_total", Help: "Number of cycles where the completion API returned no usable text"})
		GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_generation_failures_total", Help: "Number of completion API transport failures"})
		UpstreamFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "suibot_upstream_failures_total", Help: "Number of YouTube API failures (fetch or post)"})
		RunCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "suibot_run_cycle_duration_seconds", Help: "Run cycle duration seconds", Buckets: prometheus.DefBuckets})
		LastRunGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "suibot_last_run_timestamp_seconds", Help: "Unix time of the last completed run cycle"})
	})
}

// Nil-guarded helpers so core packages can record metrics without caring
// whether Init ran (tests usually skip it).

func IncRunCycles()          { inc(RunCycles) }
func IncRepliesPosted()      { inc(RepliesPosted) }
func IncNoCommand()          { inc(NoCommandCycles) }
func IncDedupSkips()         { inc(DedupSkips) }
func IncEmptyReplies()       { inc(EmptyReplies) }
func IncGenerationFailures() { inc(GenerationFailures) }
func IncUpstreamFailures()   { inc(UpstreamFailures) }

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// ObserveRunDuration records one cycle duration if metrics are initialized.
func ObserveRunDuration(d time.Duration) {
	if RunCycleDuration != nil {
		RunCycleDuration.Observe(d.Seconds())
	}
}

// SetLastRun records the completion time of the most recent cycle.
func SetLastRun(t time.Time) {
	if LastRunGauge != nil {
		LastRunGauge.Set(float64(t.Unix()))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
