// Package metrics scores a sampled closed-loop response. Each metric
// accumulates over (t, v, u) samples and reports one scalar.
package metrics

// Metric observes velocity/throttle samples and reduces them to a
// single value.
type Metric interface {
	Name() string
	Observe(t, v, u float64)
	Value() float64
	Reset()
}

// Evaluate runs every metric over the aligned sample rows and returns
// name -> value.
func Evaluate(ts, vs, us []float64, ms []Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i := range ts {
		for _, m := range ms {
			m.Observe(ts[i], vs[i], us[i])
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Default returns the standard scoring set for a reference velocity.
func Default(vref float64) []Metric {
	return []Metric{
		NewTrackingRMS(vref),
		NewPeakDip(vref),
		NewFinalError(vref),
		NewControlEffort(),
	}
}
