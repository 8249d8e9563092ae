package sim

import (
	"math"
	"testing"
)

func TestStateClone(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 99

	if s[0] != 1 {
		t.Error("Clone should not share backing array")
	}
	if len(c) != 3 {
		t.Errorf("expected len 3, got %d", len(c))
	}
}

func TestStateIsValid(t *testing.T) {
	if !(State{0, -1, 2.5}).IsValid() {
		t.Error("finite state should be valid")
	}
	if (State{0, math.NaN()}).IsValid() {
		t.Error("NaN state should be invalid")
	}
	if (State{math.Inf(1)}).IsValid() {
		t.Error("Inf state should be invalid")
	}
}

type noFeedthrough struct{}

func (noFeedthrough) Derivative(x State, u Input, t float64) (State, error) { return State{0}, nil }
func (noFeedthrough) Output(x State, u Input, t float64) ([]float64, error) {
	return []float64{x[0]}, nil
}
func (noFeedthrough) StateDim() int         { return 1 }
func (noFeedthrough) InputDim() int         { return 1 }
func (noFeedthrough) OutputDim() int        { return 1 }
func (noFeedthrough) InputNames() []string  { return []string{"u"} }
func (noFeedthrough) OutputNames() []string { return []string{"y"} }

func TestHasFeedthroughDefault(t *testing.T) {
	if HasFeedthrough(noFeedthrough{}) {
		t.Error("system without the Feedthrough interface should report none")
	}
}
