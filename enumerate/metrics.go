package enumerate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "lattice"

// Metrics counts the work done by an Enumerator. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Nodes    prometheus.Counter
	Points   prometheus.Counter
	LPSolves prometheus.Counter
	Pivots   prometheus.Counter
	Spawns   prometheus.Counter
	Workers  prometheus.Gauge
	MaxBits  prometheus.Gauge
}

// NewMetrics creates the enumeration metrics and registers them with reg.
// Registering twice with the same registry panics, as with promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Nodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_nodes_total",
			Help:      "Branch-and-bound nodes visited, terminal nodes included",
		}),
		Points: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_total",
			Help:      "Lattice points found inside the box",
		}),
		LPSolves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lp_solves_total",
			Help:      "Linear programs solved to bound a coordinate",
		}),
		Pivots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "simplex_pivots_total",
			Help:      "Simplex pivots over all linear programs",
		}),
		Spawns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spawned_branches_total",
			Help:      "Branches handed to a new goroutine instead of explored inline",
		}),
		Workers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "live_workers",
			Help:      "Goroutines currently exploring the search tree",
		}),
		MaxBits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "max_operand_bits",
			Help:      "Largest numerator or denominator bit length seen by the solver",
		}),
	}
}

func (m *Metrics) addNode() {
	if m != nil {
		m.Nodes.Inc()
	}
}

func (m *Metrics) addPoint() {
	if m != nil {
		m.Points.Inc()
	}
}

func (m *Metrics) addSolves(solves, pivots int) {
	if m != nil {
		m.LPSolves.Add(float64(solves))
		m.Pivots.Add(float64(pivots))
	}
}

func (m *Metrics) addSpawn() {
	if m != nil {
		m.Spawns.Inc()
	}
}

func (m *Metrics) workerStarted() {
	if m != nil {
		m.Workers.Inc()
	}
}

func (m *Metrics) workerDone() {
	if m != nil {
		m.Workers.Dec()
	}
}

func (m *Metrics) setMaxBits(bits int64) {
	if m != nil {
		m.MaxBits.Set(float64(bits))
	}
}
