package bidding

import "github.com/prometheus/client_golang/prometheus"

var (
	pipelineFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_pipeline_failures_total",
		Help: "Pipeline runs that stopped at a stage",
	}, []string{"stage"})
	pipelineConfirmed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_pipeline_confirmed_total",
		Help: "Confirmed pipeline transactions by contract method",
	}, []string{"method"})
	confirmationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_confirmation_seconds",
		Help:    "Time from submission to confirmation",
		Buckets: []float64{1, 2, 5, 10, 15, 30, 60, 90},
	})
)

func init() {
	prometheus.MustRegister(pipelineFailures)
	prometheus.MustRegister(pipelineConfirmed)
	prometheus.MustRegister(confirmationSeconds)
}
