// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eruption-core/eruptiond/pkg/color"
)

// Kind identifies a parameter's declared type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindColor
)

func parseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "bool":
		return KindBool, nil
	case "string":
		return KindString, nil
	case "color":
		return KindColor, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", ErrManifestInvalidParameter, s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	default:
		return "unknown"
	}
}

// Value is a typed parameter value. Exactly the field matching Kind is
// meaningful; the rest are zero.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Color color.Color
}

// ParseValue parses s at the given kind, the same conversion SetParameter
// applies to an incoming RPC argument.
func ParseValue(kind Kind, s string) (Value, error) {
	switch kind {
	case KindInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrParameterTypeMismatch, err)
		}
		return Value{Kind: KindInt, Int: v}, nil
	case KindFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrParameterTypeMismatch, err)
		}
		return Value{Kind: KindFloat, Float: v}, nil
	case KindBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrParameterTypeMismatch, err)
		}
		return Value{Kind: KindBool, Bool: v}, nil
	case KindString:
		return Value{Kind: KindString, Str: s}, nil
	case KindColor:
		c, err := parseColorHex(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrParameterTypeMismatch, err)
		}
		return Value{Kind: KindColor, Color: c}, nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrParameterTypeMismatch, kind)
	}
}

// String renders v back to the wire string form ParseValue can round-trip.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	case KindColor:
		return formatColorHex(v.Color)
	default:
		return ""
	}
}

// ordinal returns a float64 projection used only for min/max range checks;
// Color is compared as its packed 0xRRGGBBAA value.
func (v Value) ordinal() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindColor:
		return float64(uint32(v.Color.R)<<24 | uint32(v.Color.G)<<16 | uint32(v.Color.B)<<8 | uint32(v.Color.A))
	default:
		return 0
	}
}

func parseColorHex(s string) (color.Color, error) {
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 8 {
		return color.Color{}, fmt.Errorf("color value %q must be 8 hex digits RRGGBBAA", s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Color{}, err
	}
	return color.Color{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

func formatColorHex(c color.Color) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// toValueFromTOML converts a decoded TOML scalar (as produced by decoding
// into interface{}) to a Value of the given kind, used for manifest
// default/min/max entries which are native TOML types rather than strings.
func toValueFromTOML(kind Kind, raw interface{}) (Value, error) {
	switch kind {
	case KindInt:
		switch n := raw.(type) {
		case int64:
			return Value{Kind: KindInt, Int: n}, nil
		case float64:
			return Value{Kind: KindInt, Int: int64(n)}, nil
		}
	case KindFloat:
		switch n := raw.(type) {
		case float64:
			return Value{Kind: KindFloat, Float: n}, nil
		case int64:
			return Value{Kind: KindFloat, Float: float64(n)}, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return Value{Kind: KindBool, Bool: b}, nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return Value{Kind: KindString, Str: s}, nil
		}
	case KindColor:
		if s, ok := raw.(string); ok {
			return ParseValue(KindColor, s)
		}
	}
	return Value{}, fmt.Errorf("%w: value %v is not a %s", ErrManifestInvalidParameter, raw, kind)
}
