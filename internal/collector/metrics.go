package collector

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts poll outcomes per collector. A nil *Metrics records nothing.
type Metrics struct {
	pollsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quatt_collector_polls_total",
			Help: "Polls of the Quatt APIs by collector and result",
		}, []string{"collector", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.pollsTotal)
	}
	return m
}

func (m *Metrics) observe(collector string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.pollsTotal.WithLabelValues(collector, result).Inc()
}
