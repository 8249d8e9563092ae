package viz

import (
	"bufio"
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// SavePNG renders the classic two-panel response figure: velocity with
// the reference line and a dashed hill marker on top, throttle below.
func SavePNG(ts, vs, us []float64, vref, tHill float64, path string) error {
	if len(ts) == 0 || len(ts) != len(vs) || len(ts) != len(us) {
		return fmt.Errorf("viz: mismatched series lengths")
	}

	// Velocity bounds hug the reference, widened until the whole
	// response fits.
	vMin, vMax := vref-1.2, vref+0.5
	for _, v := range vs {
		for v > vMax {
			vMax++
		}
		for v < vMin {
			vMin--
		}
	}
	uMin, uMax := 0.0, 1.0
	for _, u := range us {
		for u > uMax {
			uMax += 0.2
		}
		for u < uMin {
			uMin -= 0.2
		}
	}

	vPlot, err := seriesPlot(ts, vs, "Velocity v [m/s]", vMin, vMax)
	if err != nil {
		return err
	}
	if err := addHLine(vPlot, ts[0], ts[len(ts)-1], vref, color.Black); err != nil {
		return err
	}
	if err := addVMarker(vPlot, tHill, vMin, vMax); err != nil {
		return err
	}

	uPlot, err := seriesPlot(ts, us, "Throttle u", uMin, uMax)
	if err != nil {
		return err
	}
	if err := addVMarker(uPlot, tHill, uMin, uMax); err != nil {
		return err
	}
	vPlot.Title.Text = "Response to change in road slope"

	img := vgimg.NewWith(vgimg.UseWH(7*vg.Inch, 6*vg.Inch), vgimg.UseDPI(150))
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{{vPlot}, {uPlot}}, tiles, dc)
	vPlot.Draw(canvases[0][0])
	uPlot.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("viz: write png: %w", err)
	}
	return nil
}

func seriesPlot(ts, ys []float64, ylabel string, yMin, yMax float64) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Time t [s]"
	p.Y.Label.Text = ylabel
	p.X.Min, p.X.Max = ts[0], ts[len(ts)-1]
	p.Y.Min, p.Y.Max = yMin, yMax

	pts := make(plotter.XYs, len(ts))
	for i := range ts {
		pts[i].X = ts[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{G: 140, A: 255}
	p.Add(line)
	return p, nil
}

func addHLine(p *plot.Plot, x0, x1, y float64, c color.Color) error {
	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	p.Add(line)
	return nil
}

// addVMarker draws the dashed event line at the hill onset.
func addVMarker(p *plot.Plot, x, yMin, yMax float64) error {
	if x <= 0 {
		return nil
	}
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: yMin}, {X: x, Y: yMax}})
	if err != nil {
		return err
	}
	line.LineStyle.Color = color.Black
	line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(4)}
	p.Add(line)
	return nil
}
