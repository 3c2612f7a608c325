package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded
type Metrics struct {
	tripsGenerated *prometheus.CounterVec
	tripsInserted  prometheus.Counter
	batchErrors    prometheus.Counter
	runDuration    prometheus.Histogram
}

// NewMetrics registers the scheduler collectors. A nil registerer uses the global one.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	tripsGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripscheduler_trips_generated_total",
		Help: "Draft trips produced by the builder",
	}, []string{"depot"})
	tripsInserted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripscheduler_trips_inserted_total",
		Help: "Trips persisted by the batch writer",
	})
	batchErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripscheduler_batch_errors_total",
		Help: "Record level write errors",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripscheduler_run_duration_seconds",
		Help:    "Wall time of a generate run",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	if err := registerer.Register(tripsGenerated); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tripsGenerated = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := registerer.Register(tripsInserted); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tripsInserted = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := registerer.Register(batchErrors); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			batchErrors = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := registerer.Register(runDuration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runDuration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &Metrics{
		tripsGenerated: tripsGenerated,
		tripsInserted:  tripsInserted,
		batchErrors:    batchErrors,
		runDuration:    runDuration,
	}, nil
}

func (m *Metrics) TripsGenerated(depot string, count int) {
	if m == nil {
		return
	}
	m.tripsGenerated.WithLabelValues(depot).Add(float64(count))
}

func (m *Metrics) TripsInserted(count int) {
	if m == nil {
		return
	}
	m.tripsInserted.Add(float64(count))
}

func (m *Metrics) BatchErrors(count int) {
	if m == nil {
		return
	}
	m.batchErrors.Add(float64(count))
}

func (m *Metrics) RunFinished(started time.Time) {
	if m == nil {
		return
	}
	m.runDuration.Observe(time.Since(started).Seconds())
}
