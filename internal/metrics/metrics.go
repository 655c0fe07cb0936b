package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts bridge transfers by route and final status
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_total",
			Help: "Total number of bridge transfers",
		},
		[]string{"source_chain", "destination_chain", "status"},
	)

	// TransferDuration tracks end-to-end transfer time by method
	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_duration_seconds",
			Help:    "Transfer processing duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"transfer_method"},
	)

	// TransferAmount tracks USDC amounts bridged
	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_amount_usdc",
			Help:    "USDC amount transferred",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
		[]string{"source_chain"},
	)

	// StepTransitionsTotal counts protocol step completions
	StepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_step_transitions_total",
			Help: "Total number of protocol step completions",
		},
		[]string{"step"},
	)

	// EventErrorsTotal counts failures while applying kit events
	EventErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_event_errors_total",
			Help: "Total number of event handling failures",
		},
		[]string{"method"},
	)

	// RetriesTotal counts retry attempts by outcome
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_retries_total",
			Help: "Total number of transfer retries",
		},
		[]string{"status"},
	)

	// EstimatesTotal counts fee estimates served
	EstimatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_estimates_total",
			Help: "Total number of fee estimates served",
		},
	)

	// AdapterCacheSize tracks cached adapter instances
	AdapterCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_adapter_cache_size",
			Help: "Number of cached chain adapters",
		},
	)

	// ActiveTrackers tracks live per-transaction event registrations
	ActiveTrackers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_active_trackers",
			Help: "Number of transactions with live event tracking",
		},
	)

	// WebsocketClients tracks connected push subscribers
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)
