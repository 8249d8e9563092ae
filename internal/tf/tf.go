package tf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TransferFunction is a SISO rational transfer function
//
//	        Num[0] s^m + ... + Num[m]
//	G(s) = ---------------------------
//	        Den[0] s^n + ... + Den[n]
//
// with coefficients in descending powers of s. It must be proper
// (m <= n) to be realizable as a state-space block.
type TransferFunction struct {
	Num []float64
	Den []float64
}

// Realize converts the transfer function into a controllable canonical
// state-space realization with input port in and output port out.
func (g TransferFunction) Realize(in, out string) (*StateSpace, error) {
	den := trimLeadingZeros(g.Den)
	num := trimLeadingZeros(g.Num)
	if len(den) == 0 || den[0] == 0 {
		return nil, fmt.Errorf("tf: zero denominator")
	}
	if len(num) == 0 {
		return nil, fmt.Errorf("tf: zero numerator")
	}
	n := len(den) - 1
	if len(num)-1 > n {
		return nil, fmt.Errorf("tf: improper transfer function (numerator degree %d > %d)", len(num)-1, n)
	}

	// Monic denominator s^n + a[1] s^(n-1) + ... + a[n], numerator padded
	// to b[0] s^n + ... + b[n].
	a := make([]float64, n+1)
	for i, c := range den {
		a[i] = c / den[0]
	}
	b := make([]float64, n+1)
	copy(b[n+1-len(num):], num)
	for i := range b {
		b[i] /= den[0]
	}

	if n == 0 {
		// Static gain: no state, pure feedthrough.
		return newStateSpace(nil, nil, nil, mat.NewDense(1, 1, []float64{b[0]}), in, out)
	}

	// Controllable canonical form: companion A with the coefficient row
	// last, B selecting that row, C carrying the strictly-proper part.
	A := mat.NewDense(n, n, nil)
	for i := 0; i < n-1; i++ {
		A.Set(i, i+1, 1)
	}
	for j := 0; j < n; j++ {
		A.Set(n-1, j, -a[n-j])
	}
	B := mat.NewDense(n, 1, nil)
	B.Set(n-1, 0, 1)
	C := mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		C.Set(0, j, b[n-j]-b[0]*a[n-j])
	}
	D := mat.NewDense(1, 1, []float64{b[0]})

	return newStateSpace(A, B, C, D, in, out)
}

func trimLeadingZeros(c []float64) []float64 {
	for len(c) > 1 && c[0] == 0 {
		c = c[1:]
	}
	return c
}
