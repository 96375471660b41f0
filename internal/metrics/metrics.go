// Package metrics collects and exposes Prometheus metrics for the
// dispatcher and worker processes.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DispatcherCollector tracks dispatcher-side counters and gauges.
type DispatcherCollector struct {
	tasksHandedOut prometheus.Counter
	tasksTimeup    prometheus.Counter
	drainReplies   prometheus.Counter
	observedMax    prometheus.Gauge
	state          prometheus.Gauge
}

// NewDispatcherCollector creates and registers the dispatcher metrics.
func NewDispatcherCollector() *DispatcherCollector {
	c := &DispatcherCollector{
		tasksHandedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskfarm_tasks_handed_out_total",
			Help: "Total number of tasks assigned to workers",
		}),
		tasksTimeup: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskfarm_tasks_timeup_total",
			Help: "Total number of time-up signals received from workers",
		}),
		drainReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskfarm_drain_replies_total",
			Help: "Total number of FINI replies sent during the drain phase",
		}),
		observedMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskfarm_observed_maxtime_seconds",
			Help: "Longest single-task runtime observed across the fleet",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskfarm_dispatcher_state",
			Help: "Dispatcher state: 0=HANDING_OUT, 1=DRAINING, 2=DONE",
		}),
	}

	prometheus.MustRegister(c.tasksHandedOut)
	prometheus.MustRegister(c.tasksTimeup)
	prometheus.MustRegister(c.drainReplies)
	prometheus.MustRegister(c.observedMax)
	prometheus.MustRegister(c.state)

	return c
}

// RecordHandout records one task assignment.
func (c *DispatcherCollector) RecordHandout() { c.tasksHandedOut.Inc() }

// RecordTimeup records one time-up signal.
func (c *DispatcherCollector) RecordTimeup() { c.tasksTimeup.Inc() }

// RecordDrainReply records one FINI reply sent during the drain phase.
func (c *DispatcherCollector) RecordDrainReply() { c.drainReplies.Inc() }

// SetObservedMaxtime updates the cluster-wide observed maxtime gauge.
func (c *DispatcherCollector) SetObservedMaxtime(seconds float64) {
	c.observedMax.Set(seconds)
}

// SetState updates the dispatcher state gauge.
func (c *DispatcherCollector) SetState(state int) {
	c.state.Set(float64(state))
}

// StartServer serves the Prometheus handler on the given port. It blocks
// until the listener fails and returns that error.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
