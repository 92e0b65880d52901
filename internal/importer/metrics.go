package importer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/merchdesk/internal/skumatch"
)

type metrics struct {
	runsTotal    *prometheus.CounterVec
	rowsTotal    *prometheus.CounterVec
	matchesTotal *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merch",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of import runs by importer and result.",
		}, []string{"importer", "result"}),
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merch",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Rows read by importers.",
		}, []string{"importer"}),
		matchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merch",
			Subsystem: "import",
			Name:      "sku_matches_total",
			Help:      "SKU resolutions performed during imports by confidence tier.",
		}, []string{"importer", "confidence"}),
		runDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "merch",
			Subsystem: "import",
			Name:      "run_duration_seconds",
			Help:      "Duration of import runs.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"importer"}),
	}
})

func observeRun(importer string, r Report, started time.Time) {
	m := metricsSingleton()
	result := "success"
	if !r.Success {
		result = "error"
	}
	m.runsTotal.WithLabelValues(importer, result).Inc()
	m.rowsTotal.WithLabelValues(importer).Add(float64(r.Rows))
	m.runDuration.WithLabelValues(importer).Observe(time.Since(started).Seconds())
}

func observeMatch(importer string, c skumatch.Confidence) {
	metricsSingleton().matchesTotal.WithLabelValues(importer, string(c)).Inc()
}
