// Package metrics exposes prometheus instrumentation for the transfer
// pipeline and the file store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drive_transfers_started_total",
		Help: "Simulated transfers started",
	})

	TransfersFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drive_transfers_finished_total",
		Help: "Simulated transfers finished, by result",
	}, []string{"result"})

	TransferredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drive_transferred_bytes_total",
		Help: "Bytes committed to storage through completed transfers",
	})

	ActiveTransfers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drive_active_transfers",
		Help: "Transfers currently in their simulated chunk schedule",
	})

	MonitorRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drive_monitor_running",
		Help: "Whether the ambient throughput monitor is sampling (0/1)",
	})
)
