package eval

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
)

// logFloor keeps a perfect match from producing -Inf in the score.
const logFloor = 1e-30

// #region target
// Target is anything that quantizes values under a display name.
// softfloat.Format and softfloat.Quantizer both satisfy it.
type Target interface {
	Name() string
	Quantize(x float64) float64
}

// #endregion target

// #region evaluator
// Evaluator scores targets against sample sequences.
type Evaluator struct {
	config ScoreConfig
}

// NewEvaluator creates an evaluator with the given weights.
func NewEvaluator(config ScoreConfig) *Evaluator {
	return &Evaluator{config: config}
}

// Config returns the evaluator's weights.
func (e *Evaluator) Config() ScoreConfig {
	return e.config
}

// Evaluate quantizes every sample of seq through t and aggregates the
// error, clipping and score metrics.
func (e *Evaluator) Evaluate(t Target, seq sample.Sequence) FormatMetrics {
	n := seq.Len()
	var (
		totalWeight     float64
		underflowWeight float64
		overflowWeight  float64
		rels            = make([]float64, 0, n)
		relWeights      = make([]float64, 0, n)
	)

	for i := 0; i < n; i++ {
		k := seq.Param(i)
		w := e.config.Weight(k)
		totalWeight += w

		x := seq.Value(k)
		q := t.Quantize(x)

		if q == 0 && x != 0 {
			underflowWeight += w
		}
		if math.IsInf(q, 0) || math.IsNaN(q) {
			overflowWeight += w
			continue
		}

		rel := math.Abs(q-x) / math.Abs(x)
		if math.IsInf(rel, 0) || math.IsNaN(rel) {
			continue
		}
		rels = append(rels, rel)
		relWeights = append(relWeights, w)
	}

	m := FormatMetrics{
		Name:       t.Name(),
		MeanRelErr: math.Inf(1),
		MaxRelErr:  math.Inf(1),
		Score:      math.Inf(1),
	}
	if n > 0 {
		m.FiniteFrac = float64(len(rels)) / float64(n)
	}
	if totalWeight > 0 {
		m.UnderflowFrac = underflowWeight / totalWeight
		m.OverflowFrac = overflowWeight / totalWeight
	}
	if len(rels) == 0 {
		return m
	}

	m.MeanRelErr = stat.Mean(rels, relWeights)
	m.MaxRelErr = floats.Max(rels)
	m.Score = e.score(m)
	return m
}

// score is log10(mean) + a*log10(max) + b*underflow + c*overflow.
func (e *Evaluator) score(m FormatMetrics) float64 {
	return math.Log10(math.Max(m.MeanRelErr, logFloor)) +
		e.config.MaxErrWeight*math.Log10(math.Max(m.MaxRelErr, logFloor)) +
		e.config.UnderflowPenalty*m.UnderflowFrac +
		e.config.OverflowPenalty*m.OverflowFrac
}

// #endregion evaluator

// #region zone-error
// ZoneError averages absolute and relative error of t over the values
// inside zone. A zero input contributes zero relative error.
func ZoneError(t Target, zone Zone, values []float64) ZoneMetrics {
	zm := ZoneMetrics{Zone: zone}
	var absSum, relSum float64
	for _, x := range values {
		if !(x >= zone.Min && x < zone.Max) {
			continue
		}
		absErr := math.Abs(t.Quantize(x) - x)
		relErr := 0.0
		if x != 0 {
			relErr = absErr / math.Abs(x)
		}
		absSum += absErr
		relSum += relErr
		zm.Samples++
	}
	if zm.Samples > 0 {
		zm.MeanAbsErr = absSum / float64(zm.Samples)
		zm.MeanRelErr = relSum / float64(zm.Samples)
	}
	return zm
}

// #endregion zone-error
