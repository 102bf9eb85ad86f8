package sample

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is wrapped by every Range validation failure.
var ErrInvalidRange = errors.New("invalid sample range")

// MaxSamples caps the number of points a single Range may produce.
const MaxSamples = 1 << 20

// #region domain
// Domain says how a sample parameter maps to the evaluated value.
type Domain uint8

const (
	// Decade evaluates x = 10^k.
	Decade Domain = iota
	// Linear evaluates x = k.
	Linear
)

func (d Domain) String() string {
	switch d {
	case Decade:
		return "decade"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// ParseDomain is the inverse of Domain.String.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "decade", "":
		return Decade, nil
	case "linear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("unknown sample domain %q", s)
	}
}

// #endregion domain

// #region range
// Range returns min, min+step, min+2*step, ... up to max. The stop test
// allows half a step of slack so max itself is not lost to rounding.
func Range(min, max, step float64) ([]float64, error) {
	if !isFinite(min) || !isFinite(max) {
		return nil, fmt.Errorf("%w: bounds [%g, %g] must be finite", ErrInvalidRange, min, max)
	}
	if !isFinite(step) || step <= 0 {
		return nil, fmt.Errorf("%w: step %g must be finite and > 0", ErrInvalidRange, step)
	}
	if max < min {
		return nil, fmt.Errorf("%w: max %g below min %g", ErrInvalidRange, max, min)
	}

	count, err := Count(min, max, step)
	if err != nil {
		return nil, err
	}
	// Rounding at the half-step boundary can admit one extra point.
	out := make([]float64, 0, count+1)
	limit := max + step*0.5
	for i := 0; i <= count; i++ {
		v := min + float64(i)*step
		if v > limit {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// Count is the number of points Range(min, max, step) yields, give or
// take the half-step boundary. Spans that overflow or exceed MaxSamples
// are rejected.
func Count(min, max, step float64) (int, error) {
	spans := (max - min) / step
	if !isFinite(spans) || spans+1 > MaxSamples {
		return 0, fmt.Errorf("%w: [%g, %g] step %g exceeds %d samples", ErrInvalidRange, min, max, step, MaxSamples)
	}
	return int(math.Floor(spans+0.5)) + 1, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion range

// #region sequence
// Sequence is an immutable list of sample parameters and the domain
// used to turn each one into an input value.
type Sequence struct {
	params []float64
	domain Domain
}

// NewSequence samples [min, max] with the given step.
func NewSequence(domain Domain, min, max, step float64) (Sequence, error) {
	params, err := Range(min, max, step)
	if err != nil {
		return Sequence{}, err
	}
	return Sequence{params: params, domain: domain}, nil
}

// FromParams wraps explicit parameters. The slice is copied.
func FromParams(domain Domain, params []float64) Sequence {
	ps := make([]float64, len(params))
	copy(ps, params)
	return Sequence{params: ps, domain: domain}
}

func (s Sequence) Domain() Domain { return s.domain }
func (s Sequence) Len() int       { return len(s.params) }

// Param returns the i-th parameter.
func (s Sequence) Param(i int) float64 { return s.params[i] }

// Params returns a copy of all parameters.
func (s Sequence) Params() []float64 {
	ps := make([]float64, len(s.params))
	copy(ps, s.params)
	return ps
}

// Value maps a parameter to the value that gets quantized.
func (s Sequence) Value(k float64) float64 {
	if s.domain == Linear {
		return k
	}
	return math.Pow(10, k)
}

// #endregion sequence
