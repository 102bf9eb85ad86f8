package report

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// printer groups digits in counts ("4,001 samples").
var printer = message.NewPrinter(language.English)

// #region summary
// SummaryInput is what the summary page describes.
type SummaryInput struct {
	Generator string
	KMin      float64
	KMax      float64
	KStep     float64
	Samples   int
	Formats   []softfloat.Format
}

// WriteSummary writes the sweep configuration and the derived constants
// of every format.
func WriteSummary(w io.Writer, in SummaryInput) error {
	ew := &errWriter{w: w}
	ew.printf("---\ntitle: Soft Float Sweep Summary\n---\n\n")
	ew.printf("# Soft Float Sweep Summary\n\n")
	ew.printf("This file is generated by `%s`.\n\n", in.Generator)
	ew.printf("## Config\n\n")
	ew.printf("- k range: [%.2f, %.2f] step %.3f\n", in.KMin, in.KMax, in.KStep)
	ew.printf("- number of samples: %s\n", printer.Sprintf("%d", in.Samples))
	ew.printf("- number of formats: %s\n\n", printer.Sprintf("%d", len(in.Formats)))

	ew.printf("## Formats\n\n")
	ew.printf("| name | mantissa bits | min exp2 | max exp2 | min normal | max finite | epsilon at 1 |\n")
	ew.printf("| --- | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	for _, f := range in.Formats {
		ew.printf("| %s | %d | %d | %d | %.3e | %.3e | %.3e |\n",
			f.Name(), f.MantissaBits(), f.MinExp2(), f.MaxExp2(),
			f.MinNormal(), f.MaxFinite(), f.EpsilonAtOne())
	}
	return errors.Wrap(ew.err, "write summary")
}

// #endregion summary

// #region ranking
// WriteRanking writes the score formula, the focus note and the ranked
// table, best first.
func WriteRanking(w io.Writer, generator string, cfg eval.ScoreConfig, ranking []eval.FormatMetrics) error {
	ew := &errWriter{w: w}
	ew.printf("---\ntitle: Soft Float Ranking\n---\n\n")
	ew.printf("# Soft Float Ranking\n\n")
	ew.printf("This file is generated by `%s`.\n\n", generator)
	ew.printf("Formats are ranked by a heuristic score (lower is better):\n\n")
	ew.printf("- `score = log10(mean_rel_err) + %.3f*log10(max_rel_err) + %.3f*underflow_frac + %.3f*overflow_frac`\n",
		cfg.MaxErrWeight, cfg.UnderflowPenalty, cfg.OverflowPenalty)
	if cfg.Focus != nil {
		ew.printf("- Focus weighting enabled: k in [%.3f, %.3f] gets weight %.3f in mean error and clipping rates\n",
			cfg.Focus.Min, cfg.Focus.Max, cfg.FocusWeight)
	} else {
		ew.printf("- Focus weighting disabled: all k samples weighted equally\n")
	}
	ew.printf("- This favors low relative error while penalizing clipping to zero/infinity.\n\n")

	ew.printf("| rank | format | score | mean rel err | max rel err | underflow %% | overflow %% | finite %% |\n")
	ew.printf("| ---: | --- | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	for i, m := range ranking {
		ew.printf("| %d | %s | %.4f | %.3e | %.3e | %.2f%% | %.2f%% | %.2f%% |\n",
			i+1, m.Name, m.Score, m.MeanRelErr, m.MaxRelErr,
			m.UnderflowFrac*100, m.OverflowFrac*100, m.FiniteFrac*100)
	}
	return errors.Wrap(ew.err, "write ranking")
}

// #endregion ranking

// #region err-writer
// errWriter keeps the first write error so table rendering stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// #endregion err-writer
