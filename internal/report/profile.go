package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// #region profile
// Profile compares quantizers zone by zone over a linear sample range.
type Profile struct {
	Quantizers   []softfloat.Quantizer
	Zones        []eval.Zone
	Xs           []float64
	SamplePoints []float64
}

// AsymmetricDemo compares bf16_like and f32_like with the asymmetric
// profile over [-1, 2] in steps of 0.01.
func AsymmetricDemo() (Profile, error) {
	xs, err := sample.Range(-1, 2, 0.01)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Quantizers: []softfloat.Quantizer{
			softfloat.Uniform(softfloat.NewFormat("bf16_like", 7, -126, 127)),
			softfloat.Uniform(softfloat.NewFormat("f32_like", 23, -126, 127)),
			softfloat.AsymmetricProfile(),
		},
		Zones: []eval.Zone{
			{Name: "[-1, 0)", Min: -1, Max: 0},
			{Name: "[0, 2)", Min: 0, Max: 2},
		},
		Xs:           xs,
		SamplePoints: []float64{-0.9, -0.5, -0.1, 0.1, 0.5, 1.0, 1.5},
	}, nil
}

// ZoneMetrics evaluates every quantizer in every zone, quantizer-major.
func (p Profile) ZoneMetrics() map[string][]eval.ZoneMetrics {
	out := make(map[string][]eval.ZoneMetrics, len(p.Quantizers))
	for _, q := range p.Quantizers {
		for _, z := range p.Zones {
			out[q.Name()] = append(out[q.Name()], eval.ZoneError(q, z, p.Xs))
		}
	}
	return out
}

// #endregion profile

// #region profile-markdown
// WriteMarkdown writes the zone metrics table and the sample-point table.
func (p Profile) WriteMarkdown(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("---\ntitle: Profile Quantizer Concrete Example\n---\n\n")
	ew.printf("# Profile Quantizer Concrete Example\n\n")
	ew.printf("Goal example: **high precision in [0, 2)** and **low precision in [-1, 0)**.\n\n")
	ew.printf("IEEE-like floats (including bfloat16) are sign-symmetric: `+x` and `-x` have the same spacing.\n")
	ew.printf("Asymmetric precision therefore needs a piecewise profile, not a single float format.\n\n")

	ew.printf("## Zone metrics\n\n")
	if len(p.Xs) > 1 {
		ew.printf("Sampled x in [%.2f, %.2f], %s points. Each x is computed as start + i*step, so the grid point\n",
			p.Xs[0], p.Xs[len(p.Xs)-1], printer.Sprintf("%d", len(p.Xs)))
		ew.printf("at 0 is exactly 0 and counts toward [0, 2); an accumulated sum would land just below 0.\n\n")
	}
	ew.printf("| quantizer | zone | mean abs err | mean rel err |\n")
	ew.printf("| --- | --- | ---: | ---: |\n")
	metrics := p.ZoneMetrics()
	for _, q := range p.Quantizers {
		for _, zm := range metrics[q.Name()] {
			ew.printf("| %s | %s | %.3e | %.3e |\n", q.Name(), zm.Zone.Name, zm.MeanAbsErr, zm.MeanRelErr)
		}
	}

	ew.printf("\n## Sample points\n\n")
	ew.printf("| x |")
	for _, q := range p.Quantizers {
		ew.printf(" %s |", q.Name())
	}
	ew.printf("\n| ---: |")
	for range p.Quantizers {
		ew.printf(" ---: |")
	}
	ew.printf("\n")
	for _, x := range p.SamplePoints {
		ew.printf("| %.3f |", x)
		for _, q := range p.Quantizers {
			ew.printf(" %.8f |", q.Quantize(x))
		}
		ew.printf("\n")
	}
	return errors.Wrap(ew.err, "write profile markdown")
}

// #endregion profile-markdown

// #region profile-csv
// WriteCSV writes x,quantizer,quantized,abs_error,rel_error, x-major.
func (p Profile) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "quantizer", "quantized", "abs_error", "rel_error"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, x := range p.Xs {
		for _, q := range p.Quantizers {
			y := q.Quantize(x)
			absErr, relErr := errorsOf(x, y)
			row := []string{
				strconv.FormatFloat(x, 'f', 6, 64),
				q.Name(),
				strconv.FormatFloat(y, 'f', 12, 64),
				sci(absErr, 12),
				sci(relErr, 12),
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "write csv row %s", q.Name())
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// #endregion profile-csv
