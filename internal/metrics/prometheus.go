package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"BigPictureWatch/internal/collector"
	"BigPictureWatch/internal/model"
)

// Recorder collects per-run Prometheus metrics. It owns its registry so a
// batch run can flush everything to a node-exporter textfile at exit.
type Recorder struct {
	registry *prometheus.Registry

	fetches          *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	combines         *prometheus.CounterVec
	assemblies       *prometheus.CounterVec
	assemblyDuration prometheus.Gauge
	lastSuccess      prometheus.Gauge
	seriesPoints     *prometheus.GaugeVec
	seriesLastValue  *prometheus.GaugeVec
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bigpicture_fetches_total",
				Help: "Series fetches by source and result",
			},
			[]string{"source", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bigpicture_fetch_duration_seconds",
				Help:    "Duration of series fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		combines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bigpicture_combines_total",
				Help: "Series combinations by operator and result",
			},
			[]string{"operator", "result"},
		),
		assemblies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bigpicture_assemblies_total",
				Help: "Assembly runs by outcome (fresh, cached, failed)",
			},
			[]string{"outcome"},
		),
		assemblyDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bigpicture_assembly_duration_seconds",
			Help: "Wall time of the last assembly run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bigpicture_last_success_timestamp_seconds",
			Help: "Unix time of the last successful assembly",
		}),
		seriesPoints: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bigpicture_series_points",
				Help: "Number of points per assembled series",
			},
			[]string{"series"},
		),
		seriesLastValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bigpicture_series_last_value",
				Help: "Most recent value per assembled series",
			},
			[]string{"series"},
		),
	}
	r.registry.MustRegister(
		r.fetches, r.fetchDuration, r.combines, r.assemblies,
		r.assemblyDuration, r.lastSuccess, r.seriesPoints, r.seriesLastValue,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// FetchDone records one fetch attempt.
func (r *Recorder) FetchDone(source, _ string, d time.Duration, err error) {
	r.fetches.WithLabelValues(source, fetchResult(err)).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// CombineDone records one combine step.
func (r *Recorder) CombineDone(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.combines.WithLabelValues(op, result).Inc()
}

// AssemblyDone records the outcome of a whole run.
func (r *Recorder) AssemblyDone(cacheHit bool, d time.Duration, err error) {
	outcome := "fresh"
	switch {
	case err != nil:
		outcome = "failed"
	case cacheHit:
		outcome = "cached"
	}
	r.assemblies.WithLabelValues(outcome).Inc()
	r.assemblyDuration.Set(d.Seconds())
	if err == nil {
		r.lastSuccess.SetToCurrentTime()
	}
}

// ObserveCollection records size and latest value of every series.
func (r *Recorder) ObserveCollection(c *model.Collection) {
	c.Range(func(key string, s model.Series) {
		r.seriesPoints.WithLabelValues(key).Set(float64(s.Len()))
		if p, ok := s.Last(); ok {
			r.seriesLastValue.WithLabelValues(key).Set(p.Value)
		}
	})
}

// WriteTextfile writes all metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, collector.ErrEmptySeries):
		return "empty"
	case errors.Is(err, collector.ErrParse):
		return "parse_error"
	case errors.Is(err, collector.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
