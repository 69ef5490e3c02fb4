package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// parseParam parses a name=value parameter override. Values are read as a
// bool, a number, a comma-separated vector of two or three numbers, or
// otherwise as a string.
func parseParam(s string) (string, cty.Value, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", cty.NilVal, fmt.Errorf("invalid parameter %q: expected name=value", s)
	}
	return name, parseValue(strings.TrimSpace(raw)), nil
}

func parseValue(raw string) cty.Value {
	if b, err := strconv.ParseBool(raw); err == nil {
		return cty.BoolVal(b)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return cty.NumberFloatVal(f)
	}
	if fs, err := parseFloats(raw); err == nil {
		switch len(fs) {
		case 2:
			return pintype.Vector2DVal(fs[0], fs[1])
		case 3:
			return pintype.VectorVal(fs[0], fs[1], fs[2])
		}
	}
	return cty.StringVal(raw)
}

// parsePosition parses "x,y,z".
func parsePosition(s string) ([3]float64, error) {
	fs, err := parseFloats(s)
	if err != nil || len(fs) != 3 {
		return [3]float64{}, fmt.Errorf("invalid position %q: expected x,y,z", s)
	}
	return [3]float64{fs[0], fs[1], fs[2]}, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
