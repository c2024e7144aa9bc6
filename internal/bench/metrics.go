package bench

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	trialDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matbench_trial_duration_seconds",
		Help:    "Duration of a single trial of a benchmarked method",
		Buckets: prometheus.ExponentialBuckets(1e-7, 4, 14),
	}, []string{"method", "threads"})

	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matbench_trials_total",
		Help: "Total number of trials executed",
	}, []string{"method"})

	methodAverage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "matbench_method_average_nanoseconds",
		Help: "Mean trial duration of the last run of a method",
	}, []string{"method", "threads"})
)

func observer(id MethodID, threads int) func(time.Duration) {
	h := trialDuration.WithLabelValues(id.String(), strconv.Itoa(threads))
	c := trialsTotal.WithLabelValues(id.String())
	return func(d time.Duration) {
		h.Observe(d.Seconds())
		c.Inc()
	}
}

func recordAverage(id MethodID, threads int, nanos int64) {
	methodAverage.WithLabelValues(id.String(), strconv.Itoa(threads)).Set(float64(nanos))
}

// WriteMetrics dumps the default Prometheus registry to path in the text
// exposition format.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
