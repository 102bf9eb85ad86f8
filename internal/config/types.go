package config

import (
	"fmt"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// #region options
// Options are the sweep command-line flags. Pointer fields are optional.
type Options struct {
	KMin             float64  `long:"k-min" default:"-20" description:"lowest sample exponent k, x = 10^k"`
	KMax             float64  `long:"k-max" default:"20" description:"highest sample exponent k"`
	KStep            float64  `long:"k-step" default:"0.1" description:"step between sample exponents"`
	Out              string   `long:"out" default:"docs/soft_float_sweep" description:"output path prefix"`
	FocusMin         *float64 `long:"focus-min" description:"optional focus interval lower k"`
	FocusMax         *float64 `long:"focus-max" description:"optional focus interval upper k"`
	FocusWeight      float64  `long:"focus-weight" default:"5" description:"weight of samples in the focus interval (>= 1)"`
	MaxErrWeight     float64  `long:"maxerr-weight" default:"0.5" description:"score weight of log10(max relative error) (>= 0)"`
	UnderflowPenalty float64  `long:"underflow-penalty" default:"4" description:"score penalty per underflow fraction (>= 0)"`
	OverflowPenalty  float64  `long:"overflow-penalty" default:"4" description:"score penalty per overflow fraction (>= 0)"`
	NoPresets        bool     `long:"no-presets" description:"start with no built-in formats; applies wherever it appears among the format flags"`
	Formats          []string `long:"format" value-name:"name,m,min_e,max_e" description:"replace presets with this format (repeatable); --format entries come before --add-format entries regardless of argument order"`
	AddFormats       []string `long:"add-format" value-name:"name,m,min_e,max_e" description:"add a format after any --format entries (repeatable)"`
	ConfigFile       string   `long:"config" description:"YAML sweep file; explicit flags override it"`
	DB               string   `long:"db" env:"SOFTFLOAT_DB" description:"SQLite run store path (optional)"`
	LogLevel         string   `long:"log-level" default:"info" description:"debug, info, warn or error"`
	LogFormat        string   `long:"log-format" default:"text" choice:"text" choice:"json" description:"log output format"`
}

// #endregion options

// #region file
// File is the YAML/JSON form of a sweep. Absent keys keep their defaults.
type File struct {
	KMin             *float64 `yaml:"k_min,omitempty" json:"k_min,omitempty"`
	KMax             *float64 `yaml:"k_max,omitempty" json:"k_max,omitempty"`
	KStep            *float64 `yaml:"k_step,omitempty" json:"k_step,omitempty"`
	Out              *string  `yaml:"out,omitempty" json:"out,omitempty"`
	FocusMin         *float64 `yaml:"focus_min,omitempty" json:"focus_min,omitempty"`
	FocusMax         *float64 `yaml:"focus_max,omitempty" json:"focus_max,omitempty"`
	FocusWeight      *float64 `yaml:"focus_weight,omitempty" json:"focus_weight,omitempty"`
	MaxErrWeight     *float64 `yaml:"maxerr_weight,omitempty" json:"maxerr_weight,omitempty"`
	UnderflowPenalty *float64 `yaml:"underflow_penalty,omitempty" json:"underflow_penalty,omitempty"`
	OverflowPenalty  *float64 `yaml:"overflow_penalty,omitempty" json:"overflow_penalty,omitempty"`
	NoPresets        *bool    `yaml:"no_presets,omitempty" json:"no_presets,omitempty"`
	Formats          []string `yaml:"formats,omitempty" json:"formats,omitempty"`
	AddFormats       []string `yaml:"add_formats,omitempty" json:"add_formats,omitempty"`
}

// #endregion file

// #region config
// Config is a fully validated sweep configuration.
type Config struct {
	KMin      float64
	KMax      float64
	KStep     float64
	OutPrefix string
	Formats   []softfloat.Format
	Score     eval.ScoreConfig
	DBPath    string
	LogLevel  string
	LogFormat string
}

// Sequence samples the configured k range in the decade domain.
func (c Config) Sequence() (sample.Sequence, error) {
	return sample.NewSequence(sample.Decade, c.KMin, c.KMax, c.KStep)
}

// Targets wraps every configured format for the metrics engine.
func (c Config) Targets() []eval.Target {
	out := make([]eval.Target, len(c.Formats))
	for i, f := range c.Formats {
		out[i] = softfloat.Uniform(f)
	}
	return out
}

// File converts c back to its serializable form. Presets are written out
// explicitly so the file reproduces the same format list.
func (c Config) File() File {
	noPresets := true
	f := File{
		KMin:             ptr(c.KMin),
		KMax:             ptr(c.KMax),
		KStep:            ptr(c.KStep),
		Out:              ptr(c.OutPrefix),
		FocusWeight:      ptr(c.Score.FocusWeight),
		MaxErrWeight:     ptr(c.Score.MaxErrWeight),
		UnderflowPenalty: ptr(c.Score.UnderflowPenalty),
		OverflowPenalty:  ptr(c.Score.OverflowPenalty),
		NoPresets:        &noPresets,
	}
	if c.Score.Focus != nil {
		f.FocusMin = ptr(c.Score.Focus.Min)
		f.FocusMax = ptr(c.Score.Focus.Max)
	}
	for _, ft := range c.Formats {
		f.AddFormats = append(f.AddFormats, ft.Descriptor())
	}
	return f
}

// FocusLabel describes the focus interval for reports and logs.
func (c Config) FocusLabel() string {
	if c.Score.Focus == nil {
		return "none"
	}
	return fmt.Sprintf("[%.3f, %.3f] x%.3f", c.Score.Focus.Min, c.Score.Focus.Max, c.Score.FocusWeight)
}

func ptr[T any](v T) *T { return &v }

// #endregion config
