package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewDispatcherCollector(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	c := NewDispatcherCollector()

	assert.NotNil(t, c.tasksHandedOut)
	assert.NotNil(t, c.tasksTimeup)
	assert.NotNil(t, c.drainReplies)
	assert.NotNil(t, c.observedMax)
	assert.NotNil(t, c.state)
}

func TestRecordersDoNotPanic(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	c := NewDispatcherCollector()

	assert.NotPanics(t, func() {
		c.RecordHandout()
		c.RecordTimeup()
		c.RecordDrainReply()
		c.SetObservedMaxtime(12.5)
		c.SetState(1)
	})
}
