// Package metrics exposes controller snapshots as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ja7ad/copper/pkg/copper"
)

const namespace = "copper"

// Metrics holds the gauges for one or more named controllers.
type Metrics struct {
	cap         *prometheus.GaugeVec
	xup         *prometheus.GaugeVec
	perfError   *prometheus.GaugeVec
	workload    *prometheus.GaugeVec
	target      *prometheus.GaugeVec
	covariance  *prometheus.GaugeVec
	performance *prometheus.GaugeVec
	steps       *prometheus.CounterVec
}

// New registers the controller metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := []string{"controller"}

	return &Metrics{
		cap: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cap",
			Help:      "Last cap returned by the controller, in the caller's cost units",
		}, labels),
		xup: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "xup",
			Help:      "Normalized control value (cap / cost_min)",
		}, labels),
		perfError: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error",
			Help:      "Performance error (target - achieved)",
		}, labels),
		workload: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workload",
			Help:      "Estimated base workload (1 / x_hat)",
		}, labels),
		target: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target",
			Help:      "Performance target",
		}, labels),
		covariance: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filter_covariance",
			Help:      "Kalman filter error covariance p",
		}, labels),
		performance: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "performance",
			Help:      "Last measured performance passed to Adapt",
		}, labels),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of control steps",
		}, labels),
	}
}

// Observe records the state after one Adapt call that returned cost for
// the given measured performance.
func (m *Metrics) Observe(name string, s copper.State, performance, cost float64) {
	m.cap.WithLabelValues(name).Set(cost)
	m.xup.WithLabelValues(name).Set(s.Xup.U)
	m.perfError.WithLabelValues(name).Set(s.Xup.E)
	m.target.WithLabelValues(name).Set(s.Context.Target)
	m.covariance.WithLabelValues(name).Set(s.Filter.P)
	m.performance.WithLabelValues(name).Set(performance)
	if s.Filter.XHat != 0 {
		m.workload.WithLabelValues(name).Set(1 / s.Filter.XHat)
	}
	m.steps.WithLabelValues(name).Inc()
}

// Forget drops the series of a controller that is no longer running.
func (m *Metrics) Forget(name string) {
	for _, g := range []*prometheus.GaugeVec{m.cap, m.xup, m.perfError, m.workload, m.target, m.covariance, m.performance} {
		g.DeleteLabelValues(name)
	}
	m.steps.DeleteLabelValues(name)
}
