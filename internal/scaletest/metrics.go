package scaletest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

const metricsPrefix = "scaletest_"

// Metrics exposes the outcome of units to Prometheus.
// Each Metrics has its own registry, so several runs can coexist in one process.
type Metrics struct {
	registry       *prometheus.Registry
	deploySeconds  *prometheus.GaugeVec
	observed       *prometheus.GaugeVec
	unitsTotal     *prometheus.CounterVec
	availableCpus  prometheus.Gauge
	availableMemMb prometheus.Gauge
}

func NewMetrics() *Metrics {
	labels := []string{"instance", "shape", "magnitude"}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deploySeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "deploy_seconds",
			Help: "Time from submitting a scale test workload until it was fully deployed or timed out.",
		}, labels),
		observed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "observed_magnitude",
			Help: "Largest number of instances or apps seen deployed during a scale test.",
		}, labels),
		unitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "units_total",
			Help: "Number of scale tests by final status.",
		}, []string{"status"}),
		availableCpus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "available_cpus",
			Help: "Cpus not used by any task when the run started.",
		}),
		availableMemMb: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "available_mem_megabytes",
			Help: "Memory not used by any task when the run started.",
		}),
	}
	m.registry.MustRegister(m.deploySeconds, m.observed, m.unitsTotal, m.availableCpus, m.availableMemMb)
	return m
}

// ReportUnit records a unit that reached a terminal state.
func (m *Metrics) ReportUnit(unit *Unit) {
	m.unitsTotal.WithLabelValues(string(unit.Status)).Inc()
	if unit.Status == StatusSkipped || unit.Status == StatusAborted {
		return
	}
	labels := []string{unit.Instance, string(unit.Shape), strconv.Itoa(unit.Magnitude())}
	m.deploySeconds.WithLabelValues(labels...).Set(unit.DeployTime.Seconds())
	m.observed.WithLabelValues(labels...).Set(float64(unit.Observed))
}

func (m *Metrics) ReportAvailable(available Resources) {
	m.availableCpus.Set(available.Cpus)
	m.availableMemMb.Set(available.Mem)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve exposes the metrics on /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, port uint16) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("error shutting down metrics server")
		}
	}()

	log.Infof("serving metrics on :%d/metrics", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WithStack(err)
	}
	return nil
}

// Push sends the current metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, url string, job string, instance string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("marathon", instance).
		PushContext(ctx)
	return errors.WithMessagef(err, "error pushing metrics to %s", url)
}
