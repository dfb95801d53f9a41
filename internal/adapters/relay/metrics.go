package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	dropQueueFull      = "queue_full"
	dropStale          = "stale"
	dropSubscriberFull = "subscriber_full"
	dropStopped        = "stopped"
)

type brokerMetrics struct {
	published   prometheus.Counter
	delivered   prometheus.Counter
	dropped     *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

func (b *Broker) initMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	b.metrics = &brokerMetrics{
		published: factory.NewCounter(prometheus.CounterOpts{
			Name: "evote_relay_published_total",
			Help: "result snapshots accepted by the relay",
		}),
		delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "evote_relay_delivered_total",
			Help: "events handed to subscriber buffers",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evote_relay_dropped_total",
			Help: "events dropped by the relay, by reason",
		}, []string{"reason"}),
		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evote_relay_subscribers",
			Help: "connected subscribers",
		}, []string{"scope"}),
	}
}

func (b *Broker) countDrop(reason string) {
	if b.metrics != nil {
		b.metrics.dropped.WithLabelValues(reason).Inc()
	}
}
