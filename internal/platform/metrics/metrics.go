package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. Component-local
// metrics (e.g. matcher latency) live next to the component.
type Metrics struct {
	AccountsCreated     prometheus.Counter
	TemplatesEnrolled   prometheus.Counter
	CertificatesIssued  prometheus.Counter
	CertificatesDeleted prometheus.Counter
	LoginOutcomes       *prometheus.CounterVec
	DocumentVerified    *prometheus.CounterVec
}

// New creates the application metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_accounts_created_total",
			Help: "Total number of accounts created.",
		}),
		TemplatesEnrolled: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_face_templates_enrolled_total",
			Help: "Total number of face templates enrolled or replaced.",
		}),
		CertificatesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_certificates_issued_total",
			Help: "Total number of certificates issued or re-issued.",
		}),
		CertificatesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_certificates_deleted_total",
			Help: "Total number of certificates deleted.",
		}),
		LoginOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_login_outcomes_total",
			Help: "Login attempts by factor and outcome.",
		}, []string{"factor", "outcome"}),
		DocumentVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_document_verifications_total",
			Help: "Document verification requests by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveLogin records a login factor outcome.
func (m *Metrics) ObserveLogin(factor, outcome string) {
	m.LoginOutcomes.WithLabelValues(factor, outcome).Inc()
}
