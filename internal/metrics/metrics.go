// Package metrics exposes Prometheus counters for monitor runs.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	linesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialmon",
		Name:      "lines_total",
		Help:      "Total number of non-empty reads written to output.",
	})
	bytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialmon",
		Name:      "bytes_total",
		Help:      "Total number of raw bytes read from the device.",
	})
	emptyReadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialmon",
		Name:      "empty_reads_total",
		Help:      "Total number of read windows that elapsed without data.",
	})
	decodeAnomaliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialmon",
		Name:      "decode_anomalies_total",
		Help:      "Total number of lines containing undecodable byte sequences.",
	})
	readErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialmon",
		Name:      "read_errors_total",
		Help:      "Total number of fatal device read errors.",
	})
)

// Register registers all serialmon metrics to the provided Prometheus registerer.
// It is safe to call multiple times; AlreadyRegisteredError is ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		linesTotal, bytesTotal, emptyReadsTotal, decodeAnomaliesTotal, readErrorsTotal,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var alreadyRegisteredError prometheus.AlreadyRegisteredError
			if errors.As(err, &alreadyRegisteredError) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveLine records one line of n raw bytes.
func ObserveLine(n int) {
	if n <= 0 {
		return
	}
	linesTotal.Inc()
	bytesTotal.Add(float64(n))
}

// IncEmptyReads increments the empty read counter by 1.
func IncEmptyReads() { emptyReadsTotal.Inc() }

// IncDecodeAnomalies increments the decode anomaly counter by 1.
func IncDecodeAnomalies() { decodeAnomaliesTotal.Inc() }

// IncReadErrors increments the read error counter by 1.
func IncReadErrors() { readErrorsTotal.Inc() }
