package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
)

// palette cycles for series beyond its length.
var palette = []string{
	"#1565c0", "#c62828", "#2e7d32", "#6a1b9a", "#ef6c00",
	"#00695c", "#283593", "#ad1457", "#0277bd", "#5d4037",
}

// errFloor keeps exact results on the plot.
const errFloor = 1e-18

// #region canvas
type canvas struct {
	b             strings.Builder
	width, height float64
}

func newCanvas(width, height float64) *canvas {
	c := &canvas{width: width, height: height}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		width, height, width, height)
	c.b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	return c
}

func (c *canvas) title(text string) {
	fmt.Fprintf(&c.b, `<text x="%g" y="42" font-family="sans-serif" font-size="34" text-anchor="middle">%s</text>`,
		c.width/2, escape(text))
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string, width float64) {
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>`,
		x1, y1, x2, y2, stroke, width)
}

func (c *canvas) text(x, y float64, size int, anchor, text string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%d" text-anchor="%s">%s</text>`,
		x, y, size, anchor, escape(text))
}

func (c *canvas) polyline(points []point, stroke string, width float64) {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.x, p.y)
	}
	fmt.Fprintf(&c.b, `<polyline fill="none" stroke="%s" stroke-width="%g" points="%s" />`,
		stroke, width, strings.Join(parts, " "))
}

func (c *canvas) writeTo(w io.Writer) error {
	c.b.WriteString("</svg>")
	_, err := io.WriteString(w, c.b.String())
	return err
}

// frame is a plot area in pixels with the data ranges mapped onto it.
type frame struct {
	x0, y0, x1, y1         float64
	xMin, xMax, yMin, yMax float64
}

func (f frame) px(x float64) float64 { return mapRange(x, f.xMin, f.xMax, f.x0, f.x1) }
func (f frame) py(y float64) float64 { return mapRange(y, f.yMin, f.yMax, f.y1, f.y0) }

// axes draws the grid, tick labels, axis lines and axis titles.
func (c *canvas) axes(f frame, xTicks, yTicks []float64, yTickFmt, xLabel, yLabel string) {
	for _, t := range xTicks {
		x := f.px(t)
		c.line(x, f.y0, x, f.y1, "#ececec", 1)
		c.text(x, f.y1+22, 12, "middle", fmt.Sprintf("%g", t))
	}
	for _, t := range yTicks {
		y := f.py(t)
		c.line(f.x0, y, f.x1, y, "#ececec", 1)
		c.text(f.x0-8, y+4, 12, "end", fmt.Sprintf(yTickFmt, t))
	}
	c.line(f.x0, f.y0, f.x0, f.y1, "#222", 2)
	c.line(f.x0, f.y1, f.x1, f.y1, "#222", 2)

	c.text((f.x0+f.x1)/2, f.y1+48, 16, "middle", xLabel)
	yc := (f.y0 + f.y1) / 2
	fmt.Fprintf(&c.b, `<text x="24" y="%.2f" font-family="sans-serif" font-size="16" text-anchor="middle" transform="rotate(-90 24,%.2f)">%s</text>`,
		yc, yc, escape(yLabel))
}

// legend draws one colored swatch and label per entry, top right.
func (c *canvas) legend(right, top float64, labels []string, colors []string) {
	y := top
	for i, label := range labels {
		c.line(right-210, y, right-170, y, colors[i], 3)
		c.text(right-160, y+5, 14, "start", label)
		y += 22
	}
}

type point struct{ x, y float64 }

func mapRange(v, srcMin, srcMax, dstMin, dstMax float64) float64 {
	t := (v - srcMin) / (srcMax - srcMin)
	return dstMin + t*(dstMax-dstMin)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }

// #endregion canvas

// #region sweep-svg
// Labeled is a target with a legend label.
type Labeled interface {
	eval.Target
	String() string
}

// WriteSweepSVG plots log10 relative error against k for every target,
// one series per target in input order.
func WriteSweepSVG(w io.Writer, targets []Labeled, seq sample.Sequence, kMin, kMax float64) error {
	const width, height = 1400.0, 860.0
	c := newCanvas(width, height)
	c.title("Soft float precision sweep (relative error at x = 10^k)")

	f := frame{
		x0: 90, y0: 80, x1: width - 40, y1: height - 90,
		xMin: kMin, xMax: kMax, yMin: -18, yMax: 0.5,
	}

	var xTicks []float64
	for t := int(kMin); t <= int(kMax); t += 5 {
		xTicks = append(xTicks, float64(t))
	}
	var yTicks []float64
	for t := -18; t <= 0; t++ {
		yTicks = append(yTicks, float64(t))
	}
	c.axes(f, xTicks, yTicks, "%g", "k where x = 10^k", "log10(relative error)")

	labels := make([]string, len(targets))
	colors := make([]string, len(targets))
	for i, t := range targets {
		colors[i] = palette[i%len(palette)]
		labels[i] = t.String()

		pts := make([]point, 0, seq.Len())
		for j := 0; j < seq.Len(); j++ {
			k := seq.Param(j)
			x := seq.Value(k)
			_, rel := errorsOf(x, t.Quantize(x))
			y := math.Log10(math.Max(rel, errFloor))
			if math.IsNaN(y) || math.IsInf(y, 0) {
				// non-finite quantized values have no error to plot
				y = f.yMax
			}
			pts = append(pts, point{f.px(k), f.py(y)})
		}
		c.polyline(pts, colors[i], 2)
	}
	c.legend(f.x1, 58, labels, colors)

	return errors.Wrap(c.writeTo(w), "write sweep svg")
}

// #endregion sweep-svg
