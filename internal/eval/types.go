package eval

// #region score-config
// Interval is a closed parameter range [Min, Max].
type Interval struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether k lies in [Min, Max].
func (i Interval) Contains(k float64) bool {
	return k >= i.Min && k <= i.Max
}

// ScoreConfig holds sample weighting and the score coefficients.
type ScoreConfig struct {
	Focus            *Interval `json:"focus,omitempty"` // nil disables focus weighting
	FocusWeight      float64   `json:"focus_weight"`      // weight of samples inside Focus, >= 1
	MaxErrWeight     float64   `json:"max_err_weight"`    // coefficient of log10(max_rel_err)
	UnderflowPenalty float64   `json:"underflow_penalty"` // coefficient of the underflow fraction
	OverflowPenalty  float64   `json:"overflow_penalty"`  // coefficient of the overflow fraction
}

// DefaultScoreConfig returns the explorer's default weights.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		FocusWeight:      5.0,
		MaxErrWeight:     0.5,
		UnderflowPenalty: 4.0,
		OverflowPenalty:  4.0,
	}
}

// Weight returns the aggregation weight of parameter k.
func (c ScoreConfig) Weight(k float64) float64 {
	if c.Focus != nil && c.Focus.Contains(k) {
		return c.FocusWeight
	}
	return 1.0
}

// #endregion score-config

// #region format-metrics
// FormatMetrics is the evaluation of one target over one sample sequence.
// Infinite errors and scores are valid results: they mean no sample was
// represented finitely.
type FormatMetrics struct {
	Name          string  `json:"name"`
	MeanRelErr    float64 `json:"mean_rel_err"`   // weighted over finite samples
	MaxRelErr     float64 `json:"max_rel_err"`    // over finite samples
	UnderflowFrac float64 `json:"underflow_frac"` // weighted
	OverflowFrac  float64 `json:"overflow_frac"`  // weighted
	FiniteFrac    float64 `json:"finite_frac"`    // unweighted
	Score         float64 `json:"score"`          // lower is better
}

// #endregion format-metrics

// #region zone
// Zone is a named half-open value range [Min, Max).
type Zone struct {
	Name string
	Min  float64
	Max  float64
}

// ZoneMetrics are plain (unweighted) error means inside a Zone.
type ZoneMetrics struct {
	Zone       Zone
	Samples    int
	MeanAbsErr float64
	MeanRelErr float64
}

// #endregion zone
