package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const (
	ResultAcquired  = "acquired"
	ResultContended = "contended"
	ResultError     = "error"

	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	LockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "munin_plugin_lock_attempts_total",
			Help: "Total number of lock acquisition attempts by result",
		},
		[]string{"result"},
	)

	LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_plugin_lock_timeouts_total",
		Help: "Total number of lock acquisitions that gave up after retrying",
	})

	LockWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_plugin_lock_wait_seconds_total",
		Help: "Total time spent sleeping between lock attempts",
	})

	Publishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "munin_plugin_publish_total",
			Help: "Total number of atomic file publications by result",
		},
		[]string{"result"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "munin_plugin_runs_total",
			Help: "Total number of plugin invocations by mode and result",
		},
		[]string{"mode", "result"},
	)

	AcquireSamples = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_plugin_acquire_samples_total",
		Help: "Total number of samples written by the streaming daemon",
	})

	CollectorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "munin_plugin_collector_calls_total",
			Help: "Total number of calls into external collector processes by method and result",
		},
		[]string{"method", "result"},
	)
)

func init() {
	for _, r := range []string{ResultAcquired, ResultContended, ResultError} {
		LockAttempts.WithLabelValues(r).Add(0)
	}
	Publishes.WithLabelValues(ResultOK).Add(0)
	Publishes.WithLabelValues(ResultFailed).Add(0)
}

// WriteText writes every metric of the default gatherer in the Prometheus
// text format, as expected by node_exporter's textfile collector.
func WriteText(w io.Writer) error {
	return writeText(w, prometheus.DefaultGatherer)
}

func writeText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
