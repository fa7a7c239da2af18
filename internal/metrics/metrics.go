package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coderoom"

// Collectors holds every coderoom metric. It satisfies the transport's Metrics interface.
type Collectors struct {
	Connections   prometheus.Gauge
	Events        *prometheus.CounterVec
	EventsDropped *prometheus.CounterVec
	RoomsReaped   prometheus.Counter
}

// New registers the collectors on reg. rooms reports the live room count on scrape.
func New(reg prometheus.Registerer, rooms func() int) *Collectors {
	c := &Collectors{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open WebSocket connections.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events accepted, by type.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events or deliveries that were dropped, by reason.",
		}, []string{"reason"}),
		RoomsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_reaped_total",
			Help:      "Rooms removed after staying empty for the grace period.",
		}),
	}

	reg.MustRegister(c.Connections, c.Events, c.EventsDropped, c.RoomsReaped)
	if rooms != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently held in memory.",
		}, func() float64 { return float64(rooms()) }))
	}
	return c
}

func (c *Collectors) ConnOpened()                    { c.Connections.Inc() }
func (c *Collectors) ConnClosed()                    { c.Connections.Dec() }
func (c *Collectors) EventReceived(eventType string) { c.Events.WithLabelValues(eventType).Inc() }
func (c *Collectors) EventDropped(reason string)     { c.EventsDropped.WithLabelValues(reason).Inc() }
func (c *Collectors) RoomReaped()                    { c.RoomsReaped.Inc() }

// Handler exposes the metrics gathered by g at /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
