package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks per-file processing on its own registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	extractMethod *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

func NewPipelineMetrics() *PipelineMetrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfagent",
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Processed files by outcome status and reason.",
		},
		[]string{"status", "reason"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfagent",
			Subsystem: "pipeline",
			Name:      "file_duration_seconds",
			Help:      "Time spent on one file, extraction through commit.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
	extractMethod := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfagent",
			Subsystem: "extract",
			Name:      "method_total",
			Help:      "Successful extractions by method and backend.",
		},
		[]string{"method", "backend"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfagent",
			Subsystem: "pipeline",
			Name:      "in_flight",
			Help:      "Files currently being processed.",
		},
	)

	registry.MustRegister(filesTotal, fileDuration, extractMethod, inFlight)

	return &PipelineMetrics{
		registry:      registry,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		extractMethod: extractMethod,
		inFlight:      inFlight,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartFile() {
	m.inFlight.Inc()
}

func (m *PipelineMetrics) FinishFile(status, reason string, duration time.Duration) {
	m.inFlight.Dec()
	if status == "" {
		status = "unknown"
	}
	m.filesTotal.WithLabelValues(status, reason).Inc()
	m.fileDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveExtraction(method, backend string) {
	if method == "" {
		return
	}
	m.extractMethod.WithLabelValues(method, backend).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *PipelineMetrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("metrics.listen", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
