// Package metrics exports heater measurements and refresh statistics to
// Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
)

const namespace = "bobil"

// Metrics implements coordinator.Recorder and control.CommandRecorder.
type Metrics struct {
	registry *prometheus.Registry

	airTemperature       prometheus.Gauge
	airTemperatureTarget prometheus.Gauge
	waterTankTemperature prometheus.Gauge
	waterLevel           prometheus.Gauge
	heatingStatus        *prometheus.GaugeVec
	lastUpdate           prometheus.Gauge

	refreshes     *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	commands      *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		airTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "air_temperature_celsius",
			Help:      "Current air temperature in degree celsius.",
		}),
		airTemperatureTarget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "air_temperature_target_celsius",
			Help:      "Target air temperature in degree celsius.",
		}),
		waterTankTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_tank_temperature_celsius",
			Help:      "Current water tank temperature in degree celsius.",
		}),
		waterLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_level_percent",
			Help:      "Water tank level in percent as reported by the heater.",
		}),
		heatingStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heating_on",
			Help:      "1 if the heating circuit is on, 0 otherwise.",
		}, []string{"circuit"}),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Unix time of the published snapshot.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of status page fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands sent to the heater by command and result.",
		}, []string{"command", "result"}),
	}

	m.registry.MustRegister(
		m.airTemperature,
		m.airTemperatureTarget,
		m.waterTankTemperature,
		m.waterLevel,
		m.heatingStatus,
		m.lastUpdate,
		m.refreshes,
		m.fetchDuration,
		m.commands,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRefresh counts a refresh cycle and observes its fetch duration.
func (m *Metrics) RecordRefresh(outcome coordinator.Outcome, duration time.Duration) {
	m.refreshes.WithLabelValues(string(outcome)).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

// RecordSnapshot sets the gauges from a published snapshot. Absent
// measurements leave their gauge untouched.
func (m *Metrics) RecordSnapshot(s *heater.Snapshot) {
	if s == nil {
		return
	}
	setIfPresent(m.airTemperature, s.AirTemperature)
	setIfPresent(m.airTemperatureTarget, s.AirTemperatureTarget)
	setIfPresent(m.waterTankTemperature, s.WaterTankTemperature)
	setIfPresent(m.waterLevel, s.WaterLevel)

	for _, c := range heater.Circuits {
		on, ok := s.Status(c)
		if !ok {
			continue
		}
		v := 0.0
		if on {
			v = 1
		}
		m.heatingStatus.WithLabelValues(string(c)).Set(v)
	}

	if !s.LastUpdate.IsZero() {
		m.lastUpdate.Set(float64(s.LastUpdate.Unix()))
	}
}

// RecordCommand counts a command by result: ok, communication_error or
// api_error.
func (m *Metrics) RecordCommand(cmd heater.Command, err error) {
	result := "ok"
	switch {
	case err == nil:
	case heater.IsCommunicationError(err):
		result = "communication_error"
	default:
		result = "api_error"
	}
	m.commands.WithLabelValues(cmd.String(), result).Inc()
}

func setIfPresent(g prometheus.Gauge, v *float64) {
	if v != nil {
		g.Set(*v)
	}
}
