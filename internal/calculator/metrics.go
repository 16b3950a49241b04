package calculator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"go-chi-calculator/internal/session"
)

// instruments are the calculator's OTel metric instruments.
type instruments struct {
	ops          metric.Int64Counter
	duration     metric.Float64Histogram
	errors       metric.Int64Counter
	calculations metric.Int64Counter
	lastResult   metric.Float64Gauge
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter("calculator")
	var (
		in  instruments
		err error
	)

	in.ops, err = meter.Int64Counter("calculator.operations.total",
		metric.WithDescription("Total number of calculator events processed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ops counter: %w", err)
	}

	in.duration, err = meter.Float64Histogram("calculator.operation.duration",
		metric.WithDescription("Duration of calculator events in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ops histogram: %w", err)
	}

	in.errors, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of rejected events and division-by-zero results"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error counter: %w", err)
	}

	in.calculations, err = meter.Int64Counter("calculator.calculations.total",
		metric.WithDescription("Total number of completed calculations recorded to history"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calculations counter: %w", err)
	}

	in.lastResult, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last completed calculation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating result gauge: %w", err)
	}

	return &in, nil
}

// HistoryCollector exposes the history length of sess to Prometheus.
func HistoryCollector(sess *session.Session) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "calculator_history_entries",
		Help: "Number of calculations in the session history.",
	}, func() float64 {
		return float64(sess.HistoryLen())
	})
}
