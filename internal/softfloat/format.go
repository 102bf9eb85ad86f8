package softfloat

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidFormat is wrapped by every format construction or parse failure.
var ErrInvalidFormat = errors.New("invalid format")

// fracBits is the number of explicit fraction bits in a float64.
const fracBits = 52

// #region format
// Format is an immutable low-precision floating-point description:
// a mantissa width and an inclusive range of binary exponents.
type Format struct {
	name         string
	mantissaBits uint
	minExp2      int
	maxExp2      int
}

// NewFormat builds a Format. It does not validate the exponent range;
// call Validate before evaluating a user-supplied format.
func NewFormat(name string, mantissaBits uint, minExp2, maxExp2 int) Format {
	return Format{
		name:         name,
		mantissaBits: mantissaBits,
		minExp2:      minExp2,
		maxExp2:      maxExp2,
	}
}

func (f Format) Name() string       { return f.name }
func (f Format) MantissaBits() uint { return f.mantissaBits }
func (f Format) MinExp2() int       { return f.minExp2 }
func (f Format) MaxExp2() int       { return f.maxExp2 }

// Validate reports a malformed exponent range.
func (f Format) Validate() error {
	if f.minExp2 >= f.maxExp2 {
		return fmt.Errorf("%w %q: min_exp2 %d must be below max_exp2 %d",
			ErrInvalidFormat, f.name, f.minExp2, f.maxExp2)
	}
	return nil
}

// String renders the legend label used by the reports.
func (f Format) String() string {
	return fmt.Sprintf("%s (m=%d, e=[%d,%d])", f.name, f.mantissaBits, f.minExp2, f.maxExp2)
}

// #endregion format

// #region quantize
// Quantize rounds x to the nearest value representable by f.
// Exponents below the range flush to a signed zero, exponents above it
// (including a rounding carry out of the top binade) become a signed infinity.
func (f Format) Quantize(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x == 0 {
		return x
	}
	sign := 1.0
	if math.Signbit(x) {
		sign = -1.0
	}
	ax := math.Abs(x)
	if math.IsInf(ax, 0) {
		return math.Inf(int(sign))
	}

	exp2 := binadeExp(ax)
	if exp2 < f.minExp2 {
		return math.Copysign(0, x)
	}
	if exp2 > f.maxExp2 {
		return math.Inf(int(sign))
	}

	frac := math.Ldexp(ax, -exp2) - 1
	fracQ := frac
	if f.mantissaBits < fracBits {
		steps := math.Ldexp(1, int(f.mantissaBits))
		fracQ = math.Round(frac*steps) / steps
	}

	if fracQ >= 1 {
		fracQ = 0
		exp2++
		if exp2 > f.maxExp2 {
			return math.Inf(int(sign))
		}
	}

	return math.Ldexp(sign*(1+fracQ), exp2)
}

// #endregion quantize

// #region derived
// EpsilonAtOne is the spacing of representable values in [1, 2).
func (f Format) EpsilonAtOne() float64 {
	return math.Ldexp(1, -int(f.mantissaBits))
}

// MinNormal is the smallest non-zero magnitude.
func (f Format) MinNormal() float64 {
	return math.Ldexp(1, f.minExp2)
}

// MaxFinite is the largest finite magnitude.
func (f Format) MaxFinite() float64 {
	return (2 - f.EpsilonAtOne()) * math.Ldexp(1, f.maxExp2)
}

// UlpNear returns the quantization step in the binade of x. The second
// result is false for non-finite, non-positive or out-of-range x.
func (f Format) UlpNear(x float64) (float64, bool) {
	if math.IsInf(x, 0) || math.IsNaN(x) || x <= 0 {
		return 0, false
	}
	exp2 := binadeExp(x)
	if exp2 < f.minExp2 || exp2 > f.maxExp2 {
		return 0, false
	}
	return math.Ldexp(1, exp2-int(f.mantissaBits)), true
}

// binadeExp returns e such that 1 <= ax/2^e < 2 for finite positive ax.
func binadeExp(ax float64) int {
	_, e := math.Frexp(ax)
	return e - 1
}

// #endregion derived

// #region parse
// ParseFormat reads a "name,mantissa_bits,min_exp2,max_exp2" descriptor.
func ParseFormat(descriptor string) (Format, error) {
	parts := strings.Split(descriptor, ",")
	if len(parts) != 4 {
		return Format{}, fmt.Errorf("%w %q: expected name,mantissa_bits,min_exp2,max_exp2",
			ErrInvalidFormat, descriptor)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Format{}, fmt.Errorf("%w %q: empty name", ErrInvalidFormat, descriptor)
	}
	bits, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return Format{}, fmt.Errorf("%w: mantissa_bits in %q: %v", ErrInvalidFormat, descriptor, err)
	}
	minExp, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 32)
	if err != nil {
		return Format{}, fmt.Errorf("%w: min_exp2 in %q: %v", ErrInvalidFormat, descriptor, err)
	}
	maxExp, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 32)
	if err != nil {
		return Format{}, fmt.Errorf("%w: max_exp2 in %q: %v", ErrInvalidFormat, descriptor, err)
	}

	f := NewFormat(name, uint(bits), int(minExp), int(maxExp))
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Descriptor is the inverse of ParseFormat.
func (f Format) Descriptor() string {
	return fmt.Sprintf("%s,%d,%d,%d", f.name, f.mantissaBits, f.minExp2, f.maxExp2)
}

// #endregion parse
