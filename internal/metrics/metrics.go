// Package metrics exposes Prometheus counters for unified2 readers.
package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// RecordsTotal counts decoded records by kind
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unified2_records_total",
			Help: "Total number of unified2 records decoded",
		},
		[]string{"kind"},
	)

	// DecodeErrorsTotal counts records skipped because their payload could not be decoded
	DecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unified2_decode_errors_total",
			Help: "Total number of unified2 records that failed to decode",
		},
	)

	// EventsTotal counts events completed by aggregation
	EventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unified2_events_total",
			Help: "Total number of aggregated events emitted",
		},
	)

	// OrphanRecordsTotal counts non-event records discarded for lack of a preceding event
	OrphanRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unified2_orphan_records_total",
			Help: "Total number of records discarded outside of an event",
		},
	)

	// IncompleteReadsTotal counts reads that stopped at a partially written record
	IncompleteReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unified2_incomplete_reads_total",
			Help: "Total number of reads that found an incomplete record",
		},
	)

	// RolloversTotal counts switches from one spool file to the next
	RolloversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unified2_rollovers_total",
			Help: "Total number of spool file rollovers",
		},
	)
)

// Listen starts an HTTP server for Prometheus metrics on address. The
// returned server's Addr holds the bound address.
func Listen(address string, logger logrus.FieldLogger) (*http.Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s for metrics: %w", address, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ln.Addr().String(), Handler: mux}
	go func() {
		logger.Infof("listening on %s for metrics...", server.Addr)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Prometheus listener error: ", err)
		}
	}()
	return server, nil
}
