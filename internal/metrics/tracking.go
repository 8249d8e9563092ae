package metrics

import "math"

// TrackingRMS is the root-mean-square velocity error against the
// reference.
type TrackingRMS struct {
	vref    float64
	sumSq   float64
	samples int
}

func NewTrackingRMS(vref float64) *TrackingRMS {
	return &TrackingRMS{vref: vref}
}

func (m *TrackingRMS) Name() string { return "tracking_rms" }

func (m *TrackingRMS) Observe(t, v, u float64) {
	e := v - m.vref
	m.sumSq += e * e
	m.samples++
}

func (m *TrackingRMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingRMS) Reset() {
	m.sumSq = 0
	m.samples = 0
}

// PeakDip is the largest shortfall below the reference velocity.
type PeakDip struct {
	vref float64
	dip  float64
}

func NewPeakDip(vref float64) *PeakDip {
	return &PeakDip{vref: vref}
}

func (m *PeakDip) Name() string { return "peak_dip" }

func (m *PeakDip) Observe(t, v, u float64) {
	if d := m.vref - v; d > m.dip {
		m.dip = d
	}
}

func (m *PeakDip) Value() float64 { return m.dip }

func (m *PeakDip) Reset() { m.dip = 0 }

// FinalError is the absolute velocity error at the last sample.
type FinalError struct {
	vref float64
	last float64
	seen bool
}

func NewFinalError(vref float64) *FinalError {
	return &FinalError{vref: vref}
}

func (m *FinalError) Name() string { return "final_error" }

func (m *FinalError) Observe(t, v, u float64) {
	m.last = math.Abs(v - m.vref)
	m.seen = true
}

func (m *FinalError) Value() float64 {
	if !m.seen {
		return 0
	}
	return m.last
}

func (m *FinalError) Reset() {
	m.last = 0
	m.seen = false
}
