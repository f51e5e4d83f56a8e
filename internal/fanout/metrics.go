package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type hubMetrics struct {
	sessions       prometheus.Gauge
	delivered      prometheus.Counter
	sessionsBehind prometheus.Counter
	lastSequence   prometheus.Gauge
	feedReadErrors prometheus.Counter
}

// initMetrics registers with reg; a nil reg yields unregistered collectors.
func (h *Hub) initMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	h.metrics = &hubMetrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feedback_fanout_sessions",
			Help: "number of attached staff sessions",
		}),
		delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "feedback_fanout_events_delivered_total",
			Help: "change events queued to staff sessions",
		}),
		sessionsBehind: factory.NewCounter(prometheus.CounterOpts{
			Name: "feedback_fanout_sessions_behind_total",
			Help: "sessions detached because their queue overflowed",
		}),
		lastSequence: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feedback_fanout_last_sequence",
			Help: "highest change event sequence dispatched",
		}),
		feedReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "feedback_fanout_feed_errors_total",
			Help: "failed reads of the change feed",
		}),
	}
}
