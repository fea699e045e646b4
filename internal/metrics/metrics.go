// Package metrics holds the prometheus collectors shared by the SDK.
// Collectors register on the default registerer once per process.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nonceTickets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lighter_nonce_tickets_total",
			Help: "Nonce tickets issued, by allocation mode.",
		},
		[]string{"mode", "key"},
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lighter_tx_submissions_total",
			Help: "Transactions handed to a transport, by outcome.",
		},
		[]string{"transport", "status"},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lighter_batch_size",
			Help:    "Number of transactions per submitted batch.",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
)

func TicketIssued(mode string, keyIndex uint8, n int) {
	nonceTickets.
		WithLabelValues(mode, strconv.Itoa(int(keyIndex))).
		Add(float64(n))
}

func Submitted(transport string, status string) {
	submissions.WithLabelValues(transport, status).Inc()
}

func BatchSent(n int) {
	batchSize.Observe(float64(n))
}
