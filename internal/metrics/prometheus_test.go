package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_ActiveGauge(t *testing.T) {
	t.Run("started failures return the gauge to zero", func(t *testing.T) {
		c := NewPrometheus(prometheus.NewRegistry(), "test")

		c.TaskQueued()
		c.TaskStarted()
		require.Equal(t, 1.0, testutil.ToFloat64(c.tasksActive))

		c.TaskFailed(true)
		require.Zero(t, testutil.ToFloat64(c.tasksActive))
	})

	t.Run("rejected submissions never move the gauge", func(t *testing.T) {
		c := NewPrometheus(prometheus.NewRegistry(), "test")

		// Timeouts and terminated-pool rejections fail before any
		// worker starts the task; the gauge must not drift negative.
		c.TaskFailed(false)
		c.TaskFailed(false)
		require.Zero(t, testutil.ToFloat64(c.tasksActive))
		require.Equal(t, 2.0, testutil.ToFloat64(c.taskResults.WithLabelValues("failed")))
	})

	t.Run("completion decrements the gauge", func(t *testing.T) {
		c := NewPrometheus(prometheus.NewRegistry(), "test")

		c.TaskStarted()
		c.TaskCompleted(5 * time.Millisecond)
		require.Zero(t, testutil.ToFloat64(c.tasksActive))
		require.Equal(t, 1.0, testutil.ToFloat64(c.taskResults.WithLabelValues("completed")))
	})
}
