package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	admissionRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_admission_requests_total",
		Help: "Total number of requests evaluated by the admission guard",
	})
	ipBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_ip_blocked_total",
		Help: "Total number of requests denied by the IP gate",
	})
	pathBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_path_blocked_total",
		Help: "Total number of requests denied by the path gate",
	})
	methodDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_method_denied_total",
		Help: "Total number of requests denied by method restrictions",
	})
	rateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_rate_limited_total",
		Help: "Total number of requests denied by the rate limiter",
	})
	submissionsAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_submissions_accepted_total",
		Help: "Total number of form submissions accepted",
	})
	mailFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beatplayr_mail_failures_total",
		Help: "Total number of failed outbound email deliveries",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		admissionRequestsTotal,
		ipBlockedTotal,
		pathBlockedTotal,
		methodDeniedTotal,
		rateLimitedTotal,
		submissionsAcceptedTotal,
		mailFailuresTotal,
	)
}

// IncAdmissionRequest increments the evaluated requests counter.
func IncAdmissionRequest() { admissionRequestsTotal.Inc() }

// IncIPBlocked increments the IP-gate denial counter.
func IncIPBlocked() { ipBlockedTotal.Inc() }

// IncPathBlocked increments the path-gate denial counter.
func IncPathBlocked() { pathBlockedTotal.Inc() }

// IncMethodDenied increments the method-restriction denial counter.
func IncMethodDenied() { methodDeniedTotal.Inc() }

// IncRateLimited increments the rate-limiter denial counter.
func IncRateLimited() { rateLimitedTotal.Inc() }

// IncSubmissionAccepted increments the accepted submissions counter.
func IncSubmissionAccepted() { submissionsAcceptedTotal.Inc() }

// IncMailFailure increments the failed email deliveries counter.
func IncMailFailure() { mailFailuresTotal.Inc() }
