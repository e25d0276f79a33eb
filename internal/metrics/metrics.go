// Package metrics exports run progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"kafkaload/internal/publisher"
	"kafkaload/internal/runner"
	"kafkaload/internal/stats"
)

const namespace = "kafkaload"

// Observer is a runner.Observer that feeds a Prometheus registry.
type Observer struct {
	Registry *prometheus.Registry

	sent       prometheus.Counter
	failed     *prometheus.CounterVec
	duplicated prometheus.Counter
	latency    prometheus.Histogram
	rate       prometheus.Gauge
	progress   prometheus.Gauge
	target     prometheus.Gauge
	running    prometheus.Gauge
}

// New registers the run metrics on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Observer {
	o := &Observer{
		Registry: prometheus.NewRegistry(),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages acknowledged by the broker",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Publish attempts that failed, by error kind",
		}, []string{"kind"}),
		duplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_duplicated_total",
			Help:      "Publish attempts that replayed an earlier message id",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_latency_seconds",
			Help:      "Time until the broker acknowledged a message",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		rate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throughput_sent_per_sec",
			Help:      "Average acknowledged messages per second since the run started",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "iterations_completed",
			Help:      "Publish attempts made so far",
		}),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_rate_per_sec",
			Help:      "Configured target rate",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_active",
			Help:      "1 while a run is in progress",
		}),
	}

	o.Registry.MustRegister(
		o.sent, o.failed, o.duplicated, o.latency,
		o.rate, o.progress, o.target, o.running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

func (o *Observer) Start(p runner.Plan) {
	o.target.Set(p.Config.Rate)
	o.running.Set(1)
}

func (o *Observer) Published(e runner.PublishEvent) {
	if e.Duplicate {
		o.duplicated.Inc()
	}
	if e.Err != nil {
		o.failed.WithLabelValues(publisher.Kind(e.Err)).Inc()
		return
	}
	o.sent.Inc()
	o.latency.Observe(e.Latency.Seconds())
}

func (o *Observer) Tick(s stats.Snapshot) {
	o.rate.Set(s.Rate)
	o.progress.Set(float64(s.Iterations))
}

func (o *Observer) Checkpoint(s stats.Snapshot) {
	o.Tick(s)
}

func (o *Observer) Finished(r runner.Report) {
	o.rate.Set(r.AvgRate)
	o.progress.Set(float64(r.Iterations))
	o.running.Set(0)
}

// Handler serves the registry in the exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
