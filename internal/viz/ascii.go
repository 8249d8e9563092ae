// Package viz renders scenario results: asciigraph panels and a styled
// summary for the terminal, gonum/plot PNG figures for files.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	graphHeight = 10
	graphWidth  = 80
)

// Ascii renders stacked velocity and throttle panels for the terminal.
func Ascii(ts, vs, us []float64, vref, tHill float64) string {
	var sb strings.Builder

	sb.WriteString(asciigraph.Plot(vs,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(fmt.Sprintf("velocity v [m/s]  (vref %.1f, hill at t=%.1fs)", vref, tHill)),
	))
	sb.WriteString("\n\n")
	sb.WriteString(asciigraph.Plot(us,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(fmt.Sprintf("throttle u  (t in [%.0f, %.0f]s)", ts[0], ts[len(ts)-1])),
	))
	sb.WriteString("\n")
	return sb.String()
}
