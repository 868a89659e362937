package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bidsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "artexchange",
		Name:      "bids_total",
		Help:      "Number of accepted bids.",
	})
	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artexchange",
		Name:      "settlements_total",
		Help:      "Number of settled sales by kind.",
	}, []string{"kind"})
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artexchange",
		Name:      "rejections_total",
		Help:      "Number of operations rejected by a marketplace rule.",
	}, []string{"operation"})
)

func observe(operation string, err error) {
	if err != nil && IsRejection(err) {
		rejectionsTotal.WithLabelValues(operation).Inc()
	}
}
