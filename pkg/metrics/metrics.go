package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdesk", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdesk", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdesk", Name: "upstream_requests_total", Help: "Calls to external APIs by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	PageViews = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "blogdesk", Name: "page_views_recorded_total", Help: "Page views folded into the analytics snapshot."},
	)
	CommentsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "blogdesk", Name: "comments_submitted_total", Help: "Comment submissions by outcome (stored, spam)."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(UpstreamRequests)
	reg.MustRegister(PageViews)
	reg.MustRegister(CommentsSubmitted)
}

// Upstream records one external API call.
func Upstream(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(provider, outcome).Inc()
}
