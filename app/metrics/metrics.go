package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the contacts service.
type Metrics struct {
	IngestionTransitions *prometheus.CounterVec
	IngestionEvents      *prometheus.CounterVec
	Violations           *prometheus.CounterVec
	Validations          prometheus.Counter
	Resyncs              *prometheus.CounterVec
	IndexClaims          *prometheus.GaugeVec
	IndexConflicts       *prometheus.GaugeVec
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps tests from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		IngestionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_index_transitions_total",
			Help: "Index transitions applied per channel and kind",
		}, []string{"channel", "transition"}),
		IngestionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_ingestion_events_total",
			Help: "Profile events ingested per operation and source",
		}, []string{"operation", "source"}),
		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_validation_violations_total",
			Help: "Violations reported by the validation service",
		}, []string{"violation"}),
		Validations: factory.NewCounter(prometheus.CounterOpts{
			Name: "contacts_validations_total",
			Help: "Profiles validated",
		}),
		Resyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_index_resyncs_total",
			Help: "Full index resynchronizations by outcome",
		}, []string{"outcome"}),
		IndexClaims: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "contacts_index_claims",
			Help: "Users currently holding a claim per channel",
		}, []string{"channel"}),
		IndexConflicts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "contacts_index_conflicts",
			Help: "Canonical values claimed by more than one user per channel",
		}, []string{"channel"}),
	}
}

func (m *Metrics) ObserveTransition(channel, transition string) {
	m.IngestionTransitions.WithLabelValues(channel, transition).Inc()
}

func (m *Metrics) ObserveEvent(operation, source string, count int) {
	m.IngestionEvents.WithLabelValues(operation, source).Add(float64(count))
}

func (m *Metrics) ObserveViolation(violation string) {
	m.Violations.WithLabelValues(violation).Inc()
}

func (m *Metrics) IncrementValidations() {
	m.Validations.Inc()
}

func (m *Metrics) ObserveResync(outcome string) {
	m.Resyncs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetIndexSize(channel string, claims, conflicts int) {
	m.IndexClaims.WithLabelValues(channel).Set(float64(claims))
	m.IndexConflicts.WithLabelValues(channel).Set(float64(conflicts))
}
