package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// Struct number values must be finite; non-finite floats travel as these
// strings instead.
const (
	posInf = "+Inf"
	negInf = "-Inf"
	nan    = "NaN"
)

// #region floats
func floatValue(v float64) *structpb.Value {
	switch {
	case math.IsNaN(v):
		return structpb.NewStringValue(nan)
	case math.IsInf(v, 1):
		return structpb.NewStringValue(posInf)
	case math.IsInf(v, -1):
		return structpb.NewStringValue(negInf)
	default:
		return structpb.NewNumberValue(v)
	}
}

func valueFloat(v *structpb.Value) (float64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return k.NumberValue, nil
	case *structpb.Value_StringValue:
		switch k.StringValue {
		case posInf:
			return math.Inf(1), nil
		case negInf:
			return math.Inf(-1), nil
		case nan:
			return math.NaN(), nil
		}
		return 0, fmt.Errorf("not a number: %q", k.StringValue)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func floatList(vs []float64) *structpb.Value {
	values := make([]*structpb.Value, len(vs))
	for i, v := range vs {
		values[i] = floatValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func listFloats(v *structpb.Value) ([]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("expected a list")
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		f, err := valueFloat(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func field(s *structpb.Struct, name string) (*structpb.Value, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("missing field %q", name)
	}
	return v, nil
}

// #endregion floats

// #region quantize-messages
// QuantizeRequest asks for values to be rounded into one format.
type QuantizeRequest struct {
	Format softfloat.Format
	Values []float64
}

// Encode renders r as {format: {name, mantissa_bits, min_exp2, max_exp2}, values: [...]}.
func (r QuantizeRequest) Encode() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"format": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":          structpb.NewStringValue(r.Format.Name()),
			"mantissa_bits": structpb.NewNumberValue(float64(r.Format.MantissaBits())),
			"min_exp2":      structpb.NewNumberValue(float64(r.Format.MinExp2())),
			"max_exp2":      structpb.NewNumberValue(float64(r.Format.MaxExp2())),
		}}),
		"values": floatList(r.Values),
	}}
}

// DecodeQuantizeRequest parses and validates a Quantize payload.
func DecodeQuantizeRequest(s *structpb.Struct) (QuantizeRequest, error) {
	fv, err := field(s, "format")
	if err != nil {
		return QuantizeRequest{}, err
	}
	fs := fv.GetStructValue()
	if fs == nil {
		return QuantizeRequest{}, fmt.Errorf("format: expected an object")
	}

	var ints [3]int
	for i, name := range []string{"mantissa_bits", "min_exp2", "max_exp2"} {
		v, err := field(fs, name)
		if err != nil {
			return QuantizeRequest{}, fmt.Errorf("format: %w", err)
		}
		n, err := valueFloat(v)
		if err != nil || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return QuantizeRequest{}, fmt.Errorf("format.%s: expected an integer", name)
		}
		ints[i] = int(n)
	}
	if ints[0] < 0 {
		return QuantizeRequest{}, fmt.Errorf("format.mantissa_bits: must be >= 0")
	}
	name := fs.GetFields()["name"].GetStringValue()
	f := softfloat.NewFormat(name, uint(ints[0]), ints[1], ints[2])
	if err := f.Validate(); err != nil {
		return QuantizeRequest{}, err
	}

	vv, err := field(s, "values")
	if err != nil {
		return QuantizeRequest{}, err
	}
	values, err := listFloats(vv)
	if err != nil {
		return QuantizeRequest{}, fmt.Errorf("values: %w", err)
	}
	return QuantizeRequest{Format: f, Values: values}, nil
}

func encodeQuantizeResponse(quantized []float64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"quantized": floatList(quantized)}}
}

func decodeQuantizeResponse(s *structpb.Struct) ([]float64, error) {
	v, err := field(s, "quantized")
	if err != nil {
		return nil, err
	}
	return listFloats(v)
}

// #endregion quantize-messages

// #region rank-messages
// EncodeRankRequest renders a sweep file as a Rank payload. Keys match the
// YAML sweep file.
func EncodeRankRequest(f config.File) (*structpb.Struct, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal rank request: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal rank request: %w", err)
	}
	return structpb.NewStruct(m)
}

// DecodeRankRequest parses a Rank payload, rejecting unknown keys.
func DecodeRankRequest(s *structpb.Struct) (config.File, error) {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return config.File{}, fmt.Errorf("marshal rank request: %w", err)
	}
	var f config.File
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return config.File{}, fmt.Errorf("decode rank request: %w", err)
	}
	return f, nil
}

// RankResult is a decoded Rank response.
type RankResult struct {
	RunID   string
	Ranking []eval.FormatMetrics
}

func encodeRankResponse(r RankResult) *structpb.Struct {
	rows := make([]*structpb.Value, len(r.Ranking))
	for i, m := range r.Ranking {
		rows[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":           structpb.NewStringValue(m.Name),
			"score":          floatValue(m.Score),
			"mean_rel_err":   floatValue(m.MeanRelErr),
			"max_rel_err":    floatValue(m.MaxRelErr),
			"underflow_frac": floatValue(m.UnderflowFrac),
			"overflow_frac":  floatValue(m.OverflowFrac),
			"finite_frac":    floatValue(m.FiniteFrac),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":  structpb.NewStringValue(r.RunID),
		"ranking": structpb.NewListValue(&structpb.ListValue{Values: rows}),
	}}
}

func decodeRankResponse(s *structpb.Struct) (RankResult, error) {
	res := RankResult{RunID: s.GetFields()["run_id"].GetStringValue()}
	rv, err := field(s, "ranking")
	if err != nil {
		return RankResult{}, err
	}
	for i, row := range rv.GetListValue().GetValues() {
		rs := row.GetStructValue()
		if rs == nil {
			return RankResult{}, fmt.Errorf("ranking %d: expected an object", i)
		}
		m := eval.FormatMetrics{Name: rs.GetFields()["name"].GetStringValue()}
		for name, dst := range map[string]*float64{
			"score":          &m.Score,
			"mean_rel_err":   &m.MeanRelErr,
			"max_rel_err":    &m.MaxRelErr,
			"underflow_frac": &m.UnderflowFrac,
			"overflow_frac":  &m.OverflowFrac,
			"finite_frac":    &m.FiniteFrac,
		} {
			v, err := field(rs, name)
			if err != nil {
				return RankResult{}, fmt.Errorf("ranking %d: %w", i, err)
			}
			if *dst, err = valueFloat(v); err != nil {
				return RankResult{}, fmt.Errorf("ranking %d.%s: %w", i, name, err)
			}
		}
		res.Ranking = append(res.Ranking, m)
	}
	return res, nil
}

// #endregion rank-messages
