package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "remotectl"

// statuses are the values of the status gauge's label.
var statuses = []string{"idle", "opening", "open", "closing", "closed"}

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	Transitions        *prometheus.CounterVec
	Sends              *prometheus.CounterVec
	StaleNotifications *prometheus.CounterVec
	WatchDropped       prometheus.Counter
	Status             *prometheus.GaugeVec
}

// NewRegistry creates a registry with the connection metrics and the
// Go runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "transitions_total",
			Help:      "Connection status transitions.",
		}, []string{"from", "to"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "sends_total",
			Help:      "Outbound payloads by result.",
		}, []string{"result"}),
		StaleNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "stale_notifications_total",
			Help:      "Transport notifications discarded because their handle was released.",
		}, []string{"event"}),
		WatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "watch_dropped_total",
			Help:      "Status change events dropped because a watcher was not keeping up.",
		}),
		Status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "status",
			Help:      "1 for the current connection status, 0 otherwise.",
		}, []string{"status"}),
	}

	r.registry.MustRegister(
		r.Transitions,
		r.Sends,
		r.StaleNotifications,
		r.WatchDropped,
		r.Status,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.setStatus("idle")
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveTransition records a status change.
func (r *Registry) ObserveTransition(from, to string) {
	r.Transitions.WithLabelValues(from, to).Inc()
	r.setStatus(to)
}

// setStatus sets the gauge to 1 for current and 0 for every other status.
func (r *Registry) setStatus(current string) {
	for _, s := range statuses {
		r.Status.WithLabelValues(s).Set(0)
	}
	r.Status.WithLabelValues(current).Set(1)
}

// ObserveSend records the result of a Send call ("ok", "not_open", "error").
func (r *Registry) ObserveSend(result string) {
	r.Sends.WithLabelValues(result).Inc()
}

// ObserveStale records a discarded notification.
func (r *Registry) ObserveStale(event string) {
	r.StaleNotifications.WithLabelValues(event).Inc()
}

// ObserveDropped records a status change a watcher missed.
func (r *Registry) ObserveDropped() {
	r.WatchDropped.Inc()
}
