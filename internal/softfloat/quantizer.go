package softfloat

import "fmt"

// #region kind
// Kind tags the variant held by a Quantizer.
type Kind uint8

const (
	KindUniform Kind = iota
	KindPiecewise
)

func (k Kind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindPiecewise:
		return "piecewise"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// #endregion kind

// #region region
// Region routes values in the half-open interval [Min, Max) to Format.
type Region struct {
	Min    float64
	Max    float64
	Format Format
}

// Contains reports whether x lies in [Min, Max).
func (r Region) Contains(x float64) bool {
	return x >= r.Min && x < r.Max
}

// Overlap names two regions whose intervals intersect. The earlier one
// shadows the later one on the shared part.
type Overlap struct {
	First  int
	Second int
}

// #endregion region

// #region quantizer
// Quantizer is a closed sum of a uniform Format and a piecewise profile.
// The zero value is not usable; build one with Uniform or Piecewise.
type Quantizer struct {
	kind     Kind
	name     string
	format   Format
	regions  []Region
	fallback Format
}

// Uniform applies f to every input.
func Uniform(f Format) Quantizer {
	return Quantizer{kind: KindUniform, name: f.Name(), format: f}
}

// Piecewise dispatches to the first region containing the input, or to
// fallback when none does. Overlapping regions are accepted as given.
func Piecewise(name string, regions []Region, fallback Format) Quantizer {
	rs := make([]Region, len(regions))
	copy(rs, regions)
	return Quantizer{kind: KindPiecewise, name: name, regions: rs, fallback: fallback}
}

func (q Quantizer) Kind() Kind { return q.kind }

func (q Quantizer) Name() string {
	switch q.kind {
	case KindUniform:
		return q.format.Name()
	case KindPiecewise:
		return q.name
	default:
		panic(fmt.Sprintf("softfloat: unknown quantizer %s", q.kind))
	}
}

// Quantize maps x through the active variant.
func (q Quantizer) Quantize(x float64) float64 {
	switch q.kind {
	case KindUniform:
		return q.format.Quantize(x)
	case KindPiecewise:
		for _, r := range q.regions {
			if r.Contains(x) {
				return r.Format.Quantize(x)
			}
		}
		return q.fallback.Quantize(x)
	default:
		panic(fmt.Sprintf("softfloat: unknown quantizer %s", q.kind))
	}
}

// Format returns the wrapped format of a uniform quantizer.
func (q Quantizer) Format() (Format, bool) {
	return q.format, q.kind == KindUniform
}

// Regions returns a copy of the piecewise regions in dispatch order.
func (q Quantizer) Regions() []Region {
	rs := make([]Region, len(q.regions))
	copy(rs, q.regions)
	return rs
}

// Fallback returns the format used outside every region.
func (q Quantizer) Fallback() Format {
	return q.fallback
}

// Formats lists every format the quantizer can dispatch to, fallback last.
func (q Quantizer) Formats() []Format {
	if q.kind == KindUniform {
		return []Format{q.format}
	}
	out := make([]Format, 0, len(q.regions)+1)
	for _, r := range q.regions {
		out = append(out, r.Format)
	}
	return append(out, q.fallback)
}

// Overlaps lists region pairs with a non-empty intersection.
func (q Quantizer) Overlaps() []Overlap {
	var out []Overlap
	for i := 0; i < len(q.regions); i++ {
		for j := i + 1; j < len(q.regions); j++ {
			a, b := q.regions[i], q.regions[j]
			if a.Min < b.Max && b.Min < a.Max && a.Min < a.Max && b.Min < b.Max {
				out = append(out, Overlap{First: i, Second: j})
			}
		}
	}
	return out
}

// #endregion quantizer
