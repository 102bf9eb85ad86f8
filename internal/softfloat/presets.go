package softfloat

import "math"

// #region presets
// DefaultPresets returns the baseline comparison set, narrowest first.
// Each call returns a fresh slice.
func DefaultPresets() []Format {
	return []Format{
		NewFormat("tiny8", 3, -6, 7),
		NewFormat("fp16_like", 10, -14, 15),
		NewFormat("bf16_like", 7, -126, 127),
		NewFormat("f32_like", 23, -126, 127),
		NewFormat("f64_like", 52, -1022, 1023),
	}
}

// AsymmetricProfile is fine in [0, 2), coarse in [-1, 0) and medium
// elsewhere. A single format cannot do this: its spacing is the same
// for x and -x.
func AsymmetricProfile() Quantizer {
	return Piecewise("profile_pos_fine_neg_coarse", []Region{
		{Min: -1, Max: 0, Format: NewFormat("neg_coarse", 4, -20, 20)},
		{Min: 0, Max: 2, Format: NewFormat("pos_fine", 12, -20, 20)},
	}, NewFormat("fallback", 7, -20, 20))
}

// #endregion presets

// #region native-ulp
// ULP64 is the gap between x and the next larger float64.
func ULP64(x float64) float64 {
	return math.Nextafter(x, math.Inf(1)) - x
}

// ULP32 is the gap between x and the next larger float32.
func ULP32(x float32) float32 {
	return math.Nextafter32(x, float32(math.Inf(1))) - x
}

// #endregion native-ulp
