package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cycles_total", Help: "Strategy cycles run"},
		[]string{"strategy", "result"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Spot signals produced"},
		[]string{"action"},
	)
	SpotTradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "spot_trades_total", Help: "Spot fills by reason"},
		[]string{"reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Prediction-market orders submitted"},
		[]string{"type", "result"},
	)
	CandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_candidates_total", Help: "Shortlisted markets by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, SignalsTotal, SpotTradesTotal, OrdersTotal, CandidatesTotal)
}
