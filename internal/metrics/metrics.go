// Package metrics defines the Prometheus collectors exported on
// PROMETHEUS_PORT. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wishlist"

// Metrics groups the application collectors
type Metrics struct {
	DialogEvents      *prometheus.CounterVec
	DialogTransitions *prometheus.CounterVec
	Reservations      *prometheus.CounterVec
	SessionsActive    prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DialogEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_events_total",
			Help:      "Inbound chat events by kind.",
		}, []string{"kind"}),
		DialogTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_transitions_total",
			Help:      "Session state changes.",
		}, []string{"from", "to"}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation attempts by result.",
		}, []string{"result"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions held in memory.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Admin API requests.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.DialogEvents,
		m.DialogTransitions,
		m.Reservations,
		m.SessionsActive,
		m.HTTPRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveEvent counts one inbound chat event of the given kind
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.DialogEvents.WithLabelValues(kind).Inc()
}

// ObserveTransition counts a session state change; staying put is not counted
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.DialogTransitions.WithLabelValues(from, to).Inc()
}

// ObserveReservation counts a reserve or release attempt by its result
func (m *Metrics) ObserveReservation(result string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(result).Inc()
}

// SetSessions records how many sessions are held in memory
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// ObserveRequest counts one admin API request by route template and status
func (m *Metrics) ObserveRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
