package repository

import "github.com/prometheus/client_golang/prometheus"

var (
	fetchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_repository_fetches_total",
		Help: "Auction fetches from the ledger by result (ok, error, superseded)",
	}, []string{"result"})
	watchedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auction_repository_watched",
		Help: "Number of auctions refreshed by the poller",
	})
)

func init() {
	prometheus.MustRegister(fetchCounter)
	prometheus.MustRegister(watchedGauge)
}
