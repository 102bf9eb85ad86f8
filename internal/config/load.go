package config

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/hashicorp/go-multierror"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// #region config-error
// ConfigError is a single rejected setting. Any ConfigError stops the
// sweep before sampling starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// #endregion config-error

// #region parse-args
// NewParser binds a go-flags parser to opts.
func NewParser(opts *Options) *flags.Parser {
	p := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = "[options]"
	return p
}

// DefaultOptions returns Options holding every flag default.
func DefaultOptions() Options {
	var opts Options
	if _, err := NewParser(&opts).ParseArgs(nil); err != nil {
		panic(fmt.Sprintf("config: default options: %v", err))
	}
	return opts
}

// ParseArgs parses command-line arguments, merges the --config file under
// them and validates the result. A help request surfaces as a
// *flags.Error of type flags.ErrHelp.
func ParseArgs(args []string) (Config, error) {
	var opts Options
	p := NewParser(&opts)
	if _, err := p.ParseArgs(args); err != nil {
		return Config{}, err
	}

	if opts.ConfigFile != "" {
		file, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		file.apply(&opts, func(long string) bool {
			o := p.FindOptionByLongName(long)
			return o != nil && o.IsSet() && !o.IsSetDefault()
		})
	}
	return Build(opts)
}

// #endregion parse-args

// #region file-load
// LoadFile reads a YAML (or JSON, which is valid YAML) sweep file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "read config %s", path)
	}
	return DecodeFile(data)
}

// DecodeFile parses sweep file content, rejecting unknown keys.
func DecodeFile(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, errors.Wrap(err, "decode config")
	}
	return f, nil
}

// FromFile validates a sweep file on top of the flag defaults.
func FromFile(f File) (Config, error) {
	opts := DefaultOptions()
	f.apply(&opts, func(string) bool { return false })
	return Build(opts)
}

// apply copies every key present in f into opts unless explicit reports
// that the matching flag was given on the command line.
func (f File) apply(opts *Options, explicit func(long string) bool) {
	setFloat := func(long string, src *float64, dst *float64) {
		if src != nil && !explicit(long) {
			*dst = *src
		}
	}
	setFloat("k-min", f.KMin, &opts.KMin)
	setFloat("k-max", f.KMax, &opts.KMax)
	setFloat("k-step", f.KStep, &opts.KStep)
	setFloat("focus-weight", f.FocusWeight, &opts.FocusWeight)
	setFloat("maxerr-weight", f.MaxErrWeight, &opts.MaxErrWeight)
	setFloat("underflow-penalty", f.UnderflowPenalty, &opts.UnderflowPenalty)
	setFloat("overflow-penalty", f.OverflowPenalty, &opts.OverflowPenalty)

	if f.Out != nil && !explicit("out") {
		opts.Out = *f.Out
	}
	if f.FocusMin != nil && !explicit("focus-min") {
		opts.FocusMin = ptr(*f.FocusMin)
	}
	if f.FocusMax != nil && !explicit("focus-max") {
		opts.FocusMax = ptr(*f.FocusMax)
	}
	if f.NoPresets != nil && !explicit("no-presets") {
		opts.NoPresets = *f.NoPresets
	}
	if len(f.Formats) > 0 && !explicit("format") {
		opts.Formats = append([]string(nil), f.Formats...)
	}
	if len(f.AddFormats) > 0 && !explicit("add-format") {
		opts.AddFormats = append([]string(nil), f.AddFormats...)
	}
}

// #endregion file-load

// #region build
// Build resolves the format list and validates every setting. All
// violations are reported together.
func Build(opts Options) (Config, error) {
	var result *multierror.Error

	formats, err := resolveFormats(opts)
	if err != nil {
		result = multierror.Append(result, err)
	}

	if !isFinite(opts.KStep) || opts.KStep <= 0 {
		result = multierror.Append(result, invalid("k-step", "must be finite and > 0, got %g", opts.KStep))
	}
	rangeOK := isFinite(opts.KMin) && isFinite(opts.KMax) && opts.KMax > opts.KMin
	if !rangeOK {
		result = multierror.Append(result, invalid("k-range",
			"require finite bounds with k-max > k-min, got [%g, %g]", opts.KMin, opts.KMax))
	}
	if rangeOK && isFinite(opts.KStep) && opts.KStep > 0 {
		if _, err := sample.Count(opts.KMin, opts.KMax, opts.KStep); err != nil {
			result = multierror.Append(result, invalid("k-step",
				"too many samples over [%g, %g] at step %g (limit %d); raise k-step or narrow the range",
				opts.KMin, opts.KMax, opts.KStep, sample.MaxSamples))
		}
	}
	if opts.Out == "" {
		result = multierror.Append(result, invalid("out", "must not be empty"))
	}

	score := eval.ScoreConfig{
		FocusWeight:      opts.FocusWeight,
		MaxErrWeight:     opts.MaxErrWeight,
		UnderflowPenalty: opts.UnderflowPenalty,
		OverflowPenalty:  opts.OverflowPenalty,
	}
	switch {
	case opts.FocusMin != nil && opts.FocusMax != nil:
		lo, hi := *opts.FocusMin, *opts.FocusMax
		if !isFinite(lo) || !isFinite(hi) || !(hi > lo) {
			result = multierror.Append(result, invalid("focus",
				"require finite bounds with focus-max > focus-min, got [%g, %g]", lo, hi))
		}
		score.Focus = &eval.Interval{Min: lo, Max: hi}
	case opts.FocusMin != nil || opts.FocusMax != nil:
		result = multierror.Append(result, invalid("focus", "focus-min and focus-max must be given together"))
	}

	if !isFinite(score.FocusWeight) || score.FocusWeight < 1 {
		result = multierror.Append(result, invalid("focus-weight", "must be finite and >= 1, got %g", score.FocusWeight))
	}
	for _, w := range []struct {
		field string
		value float64
	}{
		{"maxerr-weight", score.MaxErrWeight},
		{"underflow-penalty", score.UnderflowPenalty},
		{"overflow-penalty", score.OverflowPenalty},
	} {
		if !isFinite(w.value) || w.value < 0 {
			result = multierror.Append(result, invalid(w.field, "must be finite and >= 0, got %g", w.value))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return Config{}, err
	}
	return Config{
		KMin:      opts.KMin,
		KMax:      opts.KMax,
		KStep:     opts.KStep,
		OutPrefix: opts.Out,
		Formats:   formats,
		Score:     score,
		DBPath:    opts.DB,
		LogLevel:  opts.LogLevel,
		LogFormat: opts.LogFormat,
	}, nil
}

// resolveFormats starts from the presets unless --no-presets or --format
// was given, then appends --format and --add-format entries in that order.
func resolveFormats(opts Options) ([]softfloat.Format, error) {
	var result *multierror.Error
	var formats []softfloat.Format
	if !opts.NoPresets && len(opts.Formats) == 0 {
		formats = softfloat.DefaultPresets()
	}

	descriptors := append(append([]string(nil), opts.Formats...), opts.AddFormats...)
	for _, d := range descriptors {
		f, err := softfloat.ParseFormat(d)
		if err != nil {
			result = multierror.Append(result, invalid("format", "%v", err))
			continue
		}
		formats = append(formats, f)
	}

	if len(formats) == 0 && result == nil {
		result = multierror.Append(result, invalid("format", "no formats configured; use --format or remove --no-presets"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return formats, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion build
