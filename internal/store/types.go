package store

import (
	"time"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
)

// #region run
// Run is one persisted sweep: its sampling setup, the formats it compared
// and the resulting ranking, best first.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Domain      string // "decade" | "linear"
	KMin        float64
	KMax        float64
	KStep       float64
	SampleCount int
	ConfigJSON  string
	Formats     []FormatRecord
	Ranking     []eval.FormatMetrics
}

// Winner returns the best ranked entry, if any.
func (r Run) Winner() (eval.FormatMetrics, bool) {
	if len(r.Ranking) == 0 {
		return eval.FormatMetrics{}, false
	}
	return r.Ranking[0], true
}

// #endregion run

// #region format-record
// FormatRecord is a stored format definition, in sweep input order.
type FormatRecord struct {
	Kind         string // "uniform" | "piecewise"
	Name         string
	MantissaBits uint
	MinExp2      int
	MaxExp2      int
}

// #endregion format-record

// #region run-summary
// RunSummary is the listing view of a run.
type RunSummary struct {
	ID          string
	CreatedAt   time.Time
	KMin        float64
	KMax        float64
	KStep       float64
	SampleCount int
	FormatCount int
	Winner      string
	WinnerScore float64
}

// #endregion run-summary
