// Package metrics exports Prometheus collectors for model loads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samcharles93/nnetio/internal/kio"
)

var (
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nnet_loads_total",
		Help: "Model loads by stream mode and result",
	}, []string{"mode", "result"})

	LoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nnet_load_errors_total",
		Help: "Failed model loads by error kind",
	}, []string{"kind"})

	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nnet_load_duration_seconds",
		Help:    "Wall time of model loads",
		Buckets: prometheus.DefBuckets,
	})

	LayersLoaded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nnet_layers_loaded",
		Help:    "Affine layers per successfully loaded model",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 16},
	})
)

// Mode names a stream mode for the mode label.
func Mode(binary bool) string {
	if binary {
		return "binary"
	}
	return "text"
}

// ObserveLoad records one load attempt. layers is ignored when err is non-nil.
func ObserveLoad(mode string, layers int, d time.Duration, err error) {
	LoadDuration.Observe(d.Seconds())
	if err != nil {
		LoadsTotal.WithLabelValues(mode, "error").Inc()
		kind := "other"
		if k := kio.KindOf(err); k != 0 {
			kind = k.String()
		}
		LoadErrors.WithLabelValues(kind).Inc()
		return
	}
	LoadsTotal.WithLabelValues(mode, "ok").Inc()
	LayersLoaded.Observe(float64(layers))
}
