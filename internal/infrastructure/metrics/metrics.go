package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Actor runtime metrics
	ActorActivations      *prometheus.CounterVec
	ActorPassivations     *prometheus.CounterVec
	ActorActivationErrors *prometheus.CounterVec
	ActorsActive          *prometheus.GaugeVec
	ActorTurnDuration     *prometheus.HistogramVec
	MailboxRejections     *prometheus.CounterVec

	// Snapshot store metrics
	SnapshotLoadDuration *prometheus.HistogramVec
	SnapshotSaveDuration *prometheus.HistogramVec
	SnapshotLoadErrors   *prometheus.CounterVec
	SnapshotSaveErrors   *prometheus.CounterVec

	// Ledger metrics
	AccountsCreated prometheus.Counter
	EntriesPosted   *prometheus.CounterVec
	PeriodsClosed   prometheus.Counter

	// Ops API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates all metrics and registers them with reg. Tests pass a private
// prometheus.NewRegistry so repeated New calls never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Actor runtime metrics
		ActorActivations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_actor_activations_total",
				Help: "Total actor activations",
			},
			[]string{"kind"},
		),
		ActorPassivations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_actor_passivations_total",
				Help: "Total actor passivations",
			},
			[]string{"kind"},
		),
		ActorActivationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_actor_activation_errors_total",
				Help: "Total failed actor activations",
			},
			[]string{"kind"},
		),
		ActorsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledgerd_actors_active",
				Help: "Currently active actor instances",
			},
			[]string{"kind"},
		),
		ActorTurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerd_actor_turn_duration_seconds",
				Help:    "Duration of one actor turn (command or query)",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "message"},
		),
		MailboxRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_actor_mailbox_rejections_total",
				Help: "Commands rejected because the actor mailbox was full",
			},
			[]string{"kind"},
		),

		// Snapshot store metrics
		SnapshotLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerd_snapshot_load_duration_seconds",
				Help:    "Snapshot load duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		SnapshotSaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerd_snapshot_save_duration_seconds",
				Help:    "Snapshot save duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		SnapshotLoadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_snapshot_load_errors_total",
				Help: "Total snapshot load errors",
			},
			[]string{"kind"},
		),
		SnapshotSaveErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_snapshot_save_errors_total",
				Help: "Total snapshot save errors",
			},
			[]string{"kind"},
		),

		// Ledger metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_accounts_created_total",
			Help: "Total ledger accounts created",
		}),
		EntriesPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_entries_posted_total",
				Help: "Total journal entries posted by type",
			},
			[]string{"entry_type"},
		),
		PeriodsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_periods_closed_total",
			Help: "Total accounting periods closed",
		}),

		// Ops API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerd_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerd_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgerd_http_requests_in_flight",
				Help: "HTTP requests currently being processed",
			},
		),
	}
}
