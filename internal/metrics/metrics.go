package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the submission workflow.
type Metrics struct {
	Submissions   *prometheus.CounterVec
	Registrations prometheus.Counter
	Emails        *prometheus.CounterVec
	StepDuration  *prometheus.HistogramVec
}

// Submission outcomes.
const (
	OutcomeCompleted      = "completed"
	OutcomeInvalid        = "invalid"
	OutcomePersistFailed  = "persist_failed"
	OutcomeDeliveryFailed = "delivery_failed"
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_submissions_total",
			Help: "Registration submissions by final outcome",
		}, []string{"outcome"}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "registration_records_created_total",
			Help: "Total number of registrations persisted",
		}),
		Emails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_emails_total",
			Help: "Notification emails by result (sent or failure kind)",
		}, []string{"result"}),
		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registration_step_duration_seconds",
			Help:    "Duration of the persist and notify steps",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRegistrations() {
	m.Registrations.Inc()
}

func (m *Metrics) ObserveEmail(result string) {
	m.Emails.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveStep(step string, seconds float64) {
	m.StepDuration.WithLabelValues(step).Observe(seconds)
}
