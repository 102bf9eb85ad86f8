package report

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
)

// #region sample-csv
// WriteSamplesCSV writes one row per (target, sample) pair, targets in the
// given order: format,k,x,quantized,abs_error,rel_error.
func WriteSamplesCSV(w io.Writer, targets []eval.Target, seq sample.Sequence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"format", "k", "x", "quantized", "abs_error", "rel_error"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, t := range targets {
		for i := 0; i < seq.Len(); i++ {
			k := seq.Param(i)
			x := seq.Value(k)
			q := t.Quantize(x)
			absErr, relErr := errorsOf(x, q)
			row := []string{
				t.Name(),
				strconv.FormatFloat(k, 'f', 6, 64),
				sci(x, 16),
				sci(q, 16),
				sci(absErr, 16),
				sci(relErr, 16),
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "write csv row %s", t.Name())
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// #endregion sample-csv

// #region helpers
// errorsOf returns |q-x| and |q-x|/|x|, with a relative error of 0 at x == 0.
func errorsOf(x, q float64) (absErr, relErr float64) {
	absErr = math.Abs(q - x)
	if x != 0 {
		relErr = absErr / math.Abs(x)
	}
	return absErr, relErr
}

func sci(v float64, prec int) string {
	return strconv.FormatFloat(v, 'e', prec, 64)
}

// #endregion helpers
