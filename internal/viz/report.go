package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmoray/cruisesim/internal/scenario"
)

// Report renders a styled summary of a scenario outcome: trim point,
// final tracking state and the metric table.
func Report(out *scenario.Outcome, vref float64) string {
	var sb strings.Builder

	sb.WriteString(Title.Render("cruise response"))
	sb.WriteString("\n\n")

	u0 := out.Result.Y[out.UIdx][0]
	sb.WriteString(fmt.Sprintf("%s %s m/s  %s %s  %s %s\n",
		Label.Render("trim velocity:"), Value.Render(fmt.Sprintf("%.4f", out.Trim.X[0])),
		Label.Render("trim throttle:"), Value.Render(fmt.Sprintf("%.4f", u0)),
		Label.Render("solved vref:"), Value.Render(fmt.Sprintf("%.4f", out.Trim.U[0])),
	))

	last := len(out.Result.T) - 1
	vEnd := out.Result.Y[out.VIdx][last]
	residual := vEnd - vref
	style := Good
	if residual < -0.1 || residual > 0.1 {
		style = Warn
	}
	sb.WriteString(fmt.Sprintf("%s %s m/s (%s)\n",
		Label.Render("final velocity:"), Value.Render(fmt.Sprintf("%.4f", vEnd)),
		style.Render(fmt.Sprintf("%+.4f vs reference", residual)),
	))

	sb.WriteString("\n")
	names := make([]string, 0, len(out.Metrics))
	for name := range out.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			Label.Render(fmt.Sprintf("%-16s", name)),
			Value.Render(fmt.Sprintf("%.6f", out.Metrics[name])),
		))
	}
	return Panel.Render(sb.String())
}
