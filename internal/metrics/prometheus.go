package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	tasksQueued    prometheus.Counter
	tasksActive    prometheus.Gauge
	taskResults    *prometheus.CounterVec
	taskDuration   prometheus.Histogram
	workerReplaced prometheus.Counter

	lockResults       *prometheus.CounterVec
	scheduleReplaced  prometheus.Counter
	chunkWeightsTotal prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Metrics namespace (defaults to "scheduler" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "scheduler"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.tasksQueued = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pool",
			Name:      "tasks_queued_total",
			Help:      "Total tasks submitted to the worker pool.",
		})
		p.tasksActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "pool",
			Name:      "tasks_active",
			Help:      "Tasks currently executing on workers.",
		})
		p.taskResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pool",
			Name:      "task_results_total",
			Help:      "Total task outcomes (completed,failed).",
		}, []string{"result"})
		p.taskDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Worker task execution duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		})
		p.workerReplaced = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "pool",
			Name:      "workers_replaced_total",
			Help:      "Total crashed workers evicted and replaced.",
		})

		p.lockResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "lock_results_total",
			Help:      "Total lock acquisition outcomes (acquired,contended).",
		}, []string{"result"})
		p.scheduleReplaced = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "schedule_replacements_total",
			Help:      "Total successful atomic schedule replacements.",
		})
		p.chunkWeightsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "distributor",
			Name:      "chunk_weight_completed_total",
			Help:      "Cumulative completed chunk weight (player count).",
		})

		p.reg.MustRegister(
			p.tasksQueued, p.tasksActive, p.taskResults, p.taskDuration,
			p.workerReplaced, p.lockResults, p.scheduleReplaced, p.chunkWeightsTotal,
		)
	})
}

// TaskQueued increments the queued task counter.
func (p *PrometheusCollector) TaskQueued() {
	p.ensureRegistered()
	p.tasksQueued.Inc()
}

// TaskStarted increments the active task gauge.
func (p *PrometheusCollector) TaskStarted() {
	p.ensureRegistered()
	p.tasksActive.Inc()
}

// TaskCompleted records a successful task and its duration.
func (p *PrometheusCollector) TaskCompleted(d time.Duration) {
	p.ensureRegistered()
	p.tasksActive.Dec()
	p.taskResults.WithLabelValues("completed").Inc()
	p.taskDuration.Observe(d.Seconds())
}

// TaskFailed records a failed task. The active gauge only moves for
// tasks that actually started; rejected submissions never incremented it.
func (p *PrometheusCollector) TaskFailed(started bool) {
	p.ensureRegistered()
	if started {
		p.tasksActive.Dec()
	}
	p.taskResults.WithLabelValues("failed").Inc()
}

// WorkerReplaced records a worker eviction and replacement.
func (p *PrometheusCollector) WorkerReplaced() {
	p.ensureRegistered()
	p.workerReplaced.Inc()
}

// LockAcquired records a successful lock acquisition.
func (p *PrometheusCollector) LockAcquired() {
	p.ensureRegistered()
	p.lockResults.WithLabelValues("acquired").Inc()
}

// LockContended records a contended acquisition.
func (p *PrometheusCollector) LockContended() {
	p.ensureRegistered()
	p.lockResults.WithLabelValues("contended").Inc()
}

// ScheduleReplaced records a successful atomic replacement.
func (p *PrometheusCollector) ScheduleReplaced() {
	p.ensureRegistered()
	p.scheduleReplaced.Inc()
}

// ChunkCompleted records a finished distribution chunk's weight.
func (p *PrometheusCollector) ChunkCompleted(weight int) {
	p.ensureRegistered()
	p.chunkWeightsTotal.Add(float64(weight))
}
