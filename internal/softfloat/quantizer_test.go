package softfloat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformDelegates(t *testing.T) {
	f8 := NewFormat("f8", 3, -6, 7)
	q := Uniform(f8)

	assert.Equal(t, KindUniform, q.Kind())
	assert.Equal(t, "f8", q.Name())
	for _, x := range []float64{1.05, -3.3, 0.001, 1e6} {
		assert.Equal(t, f8.Quantize(x), q.Quantize(x))
	}
	got, ok := q.Format()
	require.True(t, ok)
	assert.Equal(t, f8, got)
	assert.Equal(t, []Format{f8}, q.Formats())
}

func TestPiecewiseDispatch(t *testing.T) {
	a := NewFormat("A", 2, -20, 20)
	b := NewFormat("B", 10, -20, 20)
	c := NewFormat("C", 5, -20, 20)
	q := Piecewise("abc", []Region{
		{Min: -1, Max: 0, Format: a},
		{Min: 0, Max: 2, Format: b},
	}, c)

	assert.Equal(t, KindPiecewise, q.Kind())
	assert.Equal(t, "abc", q.Name())
	assert.Equal(t, a.Quantize(-0.5), q.Quantize(-0.5))
	assert.Equal(t, b.Quantize(0.5), q.Quantize(0.5))
	assert.Equal(t, c.Quantize(5.0), q.Quantize(5.0))
	assert.Equal(t, c.Quantize(-1.7), q.Quantize(-1.7))

	// Lower bound inclusive, upper bound exclusive.
	assert.Equal(t, b.Quantize(0.0), q.Quantize(0.0))
	assert.Equal(t, a.Quantize(-1.0), q.Quantize(-1.0))
	assert.Equal(t, c.Quantize(2.0), q.Quantize(2.0))
	// 1.99 is where the three formats disagree.
	assert.Equal(t, b.Quantize(1.99), q.Quantize(1.99))
	assert.NotEqual(t, c.Quantize(1.99), b.Quantize(1.99))

	_, ok := q.Format()
	assert.False(t, ok)
	assert.Equal(t, []Format{a, b, c}, q.Formats())
	assert.Equal(t, c, q.Fallback())
}

func TestPiecewiseNoRegionsUsesFallback(t *testing.T) {
	c := NewFormat("C", 4, -8, 8)
	q := Piecewise("only-fallback", nil, c)

	for _, x := range []float64{-3, 0, 0.7, 100, math.Inf(-1)} {
		assert.Equal(t, c.Quantize(x), q.Quantize(x))
	}
	assert.True(t, math.IsNaN(q.Quantize(math.NaN())))
}

func TestPiecewiseFirstMatchWinsOnOverlap(t *testing.T) {
	coarse := NewFormat("coarse", 1, -20, 20)
	fine := NewFormat("fine", 12, -20, 20)
	q := Piecewise("overlap", []Region{
		{Min: 0, Max: 2, Format: coarse},
		{Min: 1, Max: 3, Format: fine},
	}, fine)

	assert.Equal(t, coarse.Quantize(1.3), q.Quantize(1.3))
	assert.Equal(t, fine.Quantize(2.3), q.Quantize(2.3))
	assert.Equal(t, []Overlap{{First: 0, Second: 1}}, q.Overlaps())
}

func TestOverlapsIgnoresTouchingAndEmptyRegions(t *testing.T) {
	f := NewFormat("f", 3, -4, 4)
	q := Piecewise("touching", []Region{
		{Min: -1, Max: 0, Format: f},
		{Min: 0, Max: 2, Format: f},
		{Min: 1, Max: 1, Format: f},
	}, f)
	assert.Empty(t, q.Overlaps())
}

func TestPiecewiseRegionsAreCopied(t *testing.T) {
	f := NewFormat("f", 3, -4, 4)
	g := NewFormat("g", 9, -4, 4)
	regions := []Region{{Min: 0, Max: 1, Format: f}}
	q := Piecewise("copy", regions, g)

	regions[0].Format = g
	got := q.Regions()
	assert.Equal(t, f, got[0].Format)

	got[0].Max = 100
	assert.Equal(t, 1.0, q.Regions()[0].Max)
}

func TestAsymmetricProfile(t *testing.T) {
	p := AsymmetricProfile()
	require.Len(t, p.Regions(), 2)
	assert.Empty(t, p.Overlaps())

	// Same magnitude, different precision on each side of zero.
	pos := math.Abs(p.Quantize(0.1)-0.1) / 0.1
	neg := math.Abs(p.Quantize(-0.1)+0.1) / 0.1
	assert.Less(t, pos, neg)
}

func TestDefaultPresetsFresh(t *testing.T) {
	a := DefaultPresets()
	require.Len(t, a, 5)
	a[0] = NewFormat("mutated", 1, 0, 1)

	b := DefaultPresets()
	assert.Equal(t, "tiny8", b[0].Name())
	for _, f := range b {
		assert.NoError(t, f.Validate())
	}
}

func TestNativeULP(t *testing.T) {
	assert.Equal(t, math.Ldexp(1, -52), ULP64(1))
	assert.Equal(t, float32(math.Ldexp(1, -23)), ULP32(1))
	assert.Equal(t, math.Ldexp(1, -51), ULP64(3))
}
