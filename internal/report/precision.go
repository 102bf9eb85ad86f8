package report

import (
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// #region precision-series
// PrecisionSeries are the four curves of the precision graph: native f64
// and f32 log10(ULP) over x = 10^k, and each one's residual against the
// k - p*log10(2) baseline.
type PrecisionSeries struct {
	F64, F32                 []point
	F64Residual, F32Residual []point
}

var log10Two = math.Log10(2)

// NativePrecision samples the native ULP curves. The dense trend covers
// k in [-324, 308] for f64 (step 1/4) and [-45, 38] for f32 (step 1/8);
// residuals cover k in [-20, 20] with eight points per decade.
func NativePrecision() PrecisionSeries {
	var s PrecisionSeries

	for i := 0; i <= (308+324)*4; i++ {
		k := -324 + float64(i)*0.25
		x := math.Pow(10, k)
		if math.IsInf(x, 0) || x <= 0 {
			continue
		}
		if u := softfloat.ULP64(x); u > 0 {
			s.F64 = append(s.F64, point{k, math.Log10(u)})
		}
	}
	for i := 0; i <= (38+45)*8; i++ {
		k := -45 + float64(i)*0.125
		x := float32(math.Pow(10, k))
		if math.IsInf(float64(x), 0) || x <= 0 {
			continue
		}
		if u := softfloat.ULP32(x); u > 0 {
			s.F32 = append(s.F32, point{k, math.Log10(float64(u))})
		}
	}

	for ki := -20; ki <= 20; ki++ {
		for sub := 0; sub < 8; sub++ {
			k := float64(ki) + float64(sub)/8
			if u := softfloat.ULP64(math.Pow(10, k)); u > 0 {
				s.F64Residual = append(s.F64Residual, point{k, math.Log10(u) - (k - 52*log10Two)})
			}
			if u := softfloat.ULP32(float32(math.Pow(10, k))); u > 0 {
				s.F32Residual = append(s.F32Residual, point{k, math.Log10(float64(u)) - (k - 23*log10Two)})
			}
		}
	}
	return s
}

// #endregion precision-series

// #region precision-svg
// WritePrecisionSVG renders s as a two-panel chart: the global trend on
// top and a step plot of the sawtooth residual below.
func WritePrecisionSVG(w io.Writer, s PrecisionSeries) error {
	const (
		width, height = 1400.0, 980.0
		panelH, gap   = 360.0, 110.0
		f64Color      = "#1565c0"
		f32Color      = "#c62828"
	)
	c := newCanvas(width, height)
	c.title("Floating-point precision over range (ULP at x = 10^k)")

	top := frame{
		x0: 90, y0: 80, x1: width - 40, y1: 80 + panelH,
		xMin: -324, xMax: 308, yMin: -330, yMax: 300,
	}
	c.axes(top,
		[]float64{-300, -200, -100, 0, 100, 200, 300},
		[]float64{-300, -200, -100, 0, 100, 200, 300},
		"%.2f", "k where x = 10^k", "log10(ULP(x))")
	c.polyline(project(top, s.F64), f64Color, 2)
	c.polyline(project(top, s.F32), f32Color, 2)
	c.text(top.x0+8, top.y0-12, 18, "start", "Global trend (dense sampling)")

	bottom := frame{
		x0: 90, y0: top.y1 + gap, x1: width - 40, y1: top.y1 + gap + panelH,
		xMin: -20, xMax: 21, yMin: -log10Two - 0.02, yMax: 0.02,
	}
	c.axes(bottom,
		[]float64{-20, -10, 0, 10, 20},
		[]float64{-0.30, -0.20, -0.10, 0},
		"%.2f", "k where x = 10^k", "Residual vs baseline")
	c.polyline(steps(project(bottom, s.F64Residual)), f64Color, 1.8)
	c.polyline(steps(project(bottom, s.F32Residual)), f32Color, 1.8)
	c.text(bottom.x0+8, bottom.y0-12, 18, "start", "Jagged view (step plot of sawtooth residual)")

	c.line(top.x1-180, 64, top.x1-140, 64, f64Color, 3)
	c.text(top.x1-130, 70, 17, "start", "f64")
	c.line(top.x1-90, 64, top.x1-50, 64, f32Color, 3)
	c.text(top.x1-40, 70, 17, "start", "f32")

	return errors.Wrap(c.writeTo(w), "write precision svg")
}

func project(f frame, pts []point) []point {
	out := make([]point, len(pts))
	for i, p := range pts {
		out[i] = point{f.px(p.x), f.py(p.y)}
	}
	return out
}

// steps turns a polyline into a staircase: horizontal to the next x,
// then vertical to the next y.
func steps(pts []point) []point {
	if len(pts) == 0 {
		return nil
	}
	out := []point{pts[0]}
	for i := 1; i < len(pts); i++ {
		out = append(out, point{pts[i].x, pts[i-1].y}, pts[i])
	}
	return out
}

// #endregion precision-svg
