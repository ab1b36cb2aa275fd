// Package telemetry exports a Crossbar's line values as Prometheus gauges,
// one GaugeVec keyed by line name and kind, updated from a post-sweep
// snapshot rather than from inside the sweep's own mutex.
package telemetry

import (
	"github.com/cloudyourcar/crossbar"
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter publishes every configured line's current value as a gauge.
// It is safe to call Collect repeatedly, e.g. once per tick after
// Recalculate returns.
type Exporter struct {
	cb     *crossbar.Crossbar
	values *prometheus.GaugeVec
}

// NewExporter registers a "crossbar_line_value" GaugeVec (labels "name",
// "kind") on reg for every line in cb. reg is typically
// prometheus.DefaultRegisterer or a per-test registry.
func NewExporter(cb *crossbar.Crossbar, reg prometheus.Registerer) (*Exporter, error) {
	values := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "crossbar",
		Name:      "line_value",
		Help:      "Current published value of a crossbar line.",
	}, []string{"name", "kind"})

	if err := reg.Register(values); err != nil {
		return nil, err
	}
	return &Exporter{cb: cb, values: values}, nil
}

// Collect snapshots every line's value into its gauge. Call it after a
// sweep completes; it takes no crossbar lock itself (Value doesn't need
// one), so it never contends with FeedInput/PostRequest/Recalculate.
func (e *Exporter) Collect() {
	for i := 0; i < e.cb.Len(); i++ {
		e.values.WithLabelValues(e.cb.NameOf(i), e.cb.KindOf(i).String()).Set(float64(e.cb.Value(i)))
	}
}
