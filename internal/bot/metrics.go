package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	UpdatesProcessed     prometheus.Counter
	CommandsProcessed    *prometheus.CounterVec
	CallbacksProcessed   *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
	RateLimited          prometheus.Counter
	UpdatesDropped       prometheus.Counter
	ActiveWorkers        prometheus.Gauge
	UpdateProcessingTime prometheus.Histogram
	BookingsTotal        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdatesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_updates_processed_total",
			Help: "Total number of processed updates",
		}),

		CommandsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}, []string{"command"}),

		CallbacksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_callbacks_processed_total",
			Help: "Total number of processed button presses",
		}, []string{"event"}),

		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of recovered handler panics",
		}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_rate_limited_total",
			Help: "Total number of updates dropped by the rate limit",
		}),

		UpdatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_updates_dropped_total",
			Help: "Total number of updates dropped because the user's queue was full",
		}),

		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_bot_active_user_workers",
			Help: "Number of running per-user workers",
		}),

		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_bookings_total",
			Help: "Total number of booking attempts by result",
		}, []string{"result"}),
	}
}
