// Package metrics holds the probe's Prometheus registry and the HTTP
// exporter that serves it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wemix/btcprobe/internal/height"
)

// Metric names exposed on the scrape endpoint
const (
	TargetHeightName     = "bitcoin_block_height"
	CanisterHeightName   = "bitcoin_canister_block_height"
	HeightDifferenceName = "block_height_difference"
	CycleFailuresName    = "prober_cycle_failures_total"
	LastSuccessName      = "prober_last_success_timestamp_seconds"
)

// Sample is the result of one successful poll cycle. The three values are
// only meaningful together.
type Sample struct {
	Target     height.Height `json:"target"`
	Canister   height.Height `json:"canister"`
	Difference int64         `json:"difference"`
}

// NewSample builds a Sample, computing the signed difference target - canister.
func NewSample(target, canister height.Height) Sample {
	return Sample{
		Target:     target,
		Canister:   canister,
		Difference: int64(target) - int64(canister),
	}
}

// Registry owns the probe's gauges. It uses a private prometheus.Registry so
// that instances are independent of each other and of the global default.
//
// Each gauge is individually safe for concurrent reads and writes; there is
// no cross-gauge transaction.
type Registry struct {
	reg *prometheus.Registry

	targetHeight     prometheus.Gauge
	canisterHeight   prometheus.Gauge
	heightDifference prometheus.Gauge
	lastSuccess      prometheus.Gauge
	cycleFailures    prometheus.Counter

	now func() time.Time
}

// NewRegistry creates and registers all probe metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		targetHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: TargetHeightName,
			Help: "Block height of the canonical Bitcoin chain.",
		}),
		canisterHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: CanisterHeightName,
			Help: "Block height reported by the Bitcoin canister.",
		}),
		heightDifference: factory.NewGauge(prometheus.GaugeOpts{
			Name: HeightDifferenceName,
			Help: "Target block height minus canister block height.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: LastSuccessName,
			Help: "Unix time of the last poll cycle that updated all heights.",
		}),
		cycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: CycleFailuresName,
			Help: "Number of poll cycles that failed to fetch or extract a height.",
		}),
		now: time.Now,
	}
}

// SetTargetHeight records the canonical chain height.
func (r *Registry) SetTargetHeight(h height.Height) {
	r.targetHeight.Set(float64(h))
}

// SetCanisterHeight records the height reported by the canister.
func (r *Registry) SetCanisterHeight(h height.Height) {
	r.canisterHeight.Set(float64(h))
}

// SetHeightDifference records target - canister.
func (r *Registry) SetHeightDifference(d int64) {
	r.heightDifference.Set(float64(d))
}

// Observe publishes all values of one cycle and stamps the success time.
func (r *Registry) Observe(s Sample) {
	r.SetTargetHeight(s.Target)
	r.SetCanisterHeight(s.Canister)
	r.SetHeightDifference(s.Difference)
	r.lastSuccess.Set(float64(r.now().Unix()))
}

// IncCycleFailures counts a failed poll cycle.
func (r *Registry) IncCycleFailures() {
	r.cycleFailures.Inc()
}

// Gatherer exposes the underlying registry for serving and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
