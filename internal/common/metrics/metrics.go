// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotegen_generations_completed_total",
			Help: "Total number of documents generated",
		},
		[]string{"template_kind"},
	)

	GenerationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotegen_generations_failed_total",
			Help: "Total number of failed generation requests",
		},
		[]string{"template_kind", "error_code"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quotegen_generation_duration_seconds",
			Help: "Duration of document generation in seconds",
		},
		[]string{"template_kind"},
	)

	GenerationsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quotegen_generations_active",
			Help: "Number of generation requests currently in flight",
		},
		[]string{"template_kind"},
	)
)
