// The Lax coercion ladder.
//
// Coercions are pure conversions attempted only under Lax validation,
// first match wins: numeric widening is tried before string-to-typed
// parsing. Widening int64 to float64 always succeeds; narrowing float64 to
// int64 succeeds only when the value has no fractional part. String
// parsing reuses the temporal codec and strconv, plus base64 for binary.
//
// A failed coercion never produces an error here — the caller writes a
// typed-pool null and records a CoercionFailed warning.
package arbor

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
)

// IntToFloat widens an int64 to float64. Total: succeeds for every input
// (values beyond 2^53 lose precision but remain representable).
func IntToFloat(v int64) float64 { return float64(v) }

// FloatToInt narrows a float64 to int64. Partial: succeeds iff the value
// is finite, integral, and in int64 range.
func FloatToInt(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v != math.Trunc(v) {
		return 0, false
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// coerced is the result of one successful coercion: exactly one field is
// meaningful, selected by the target kind the caller asked for.
type coerced struct {
	b   bool
	i   int64
	f   float64
	s   string
	bin []byte
}

// coerce attempts to convert a decoded JSON value to the target kind.
// Sources are the shapes the parser produces: bool, int64, float64,
// string. ok=false means the ladder is exhausted.
func coerce(v any, target Kind) (coerced, bool) {
	// Rung one: numeric widening.
	switch src := v.(type) {
	case int64:
		switch target {
		case KindInt64:
			return coerced{i: src}, true
		case KindFloat64:
			return coerced{f: IntToFloat(src)}, true
		}
	case float64:
		switch target {
		case KindFloat64:
			return coerced{f: src}, true
		case KindInt64:
			if i, ok := FloatToInt(src); ok {
				return coerced{i: i}, true
			}
			return coerced{}, false
		}
	case bool:
		if target == KindBool {
			return coerced{b: src}, true
		}
	case string:
		return coerceString(src, target)
	}
	return coerced{}, false
}

// coerceString is the second rung: string to typed value.
func coerceString(s string, target Kind) (coerced, bool) {
	switch target {
	case KindString:
		return coerced{s: s}, true
	case KindInt64:
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return coerced{i: i}, true
		}
	case KindFloat64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return coerced{f: f}, true
		}
	case KindBool:
		if b, ok := booleanTokens[strings.ToLower(strings.TrimSpace(s))]; ok {
			return coerced{b: b}, true
		}
	case KindDate:
		if d, err := ParseDate(s); err == nil {
			return coerced{i: int64(d)}, true
		}
	case KindDateTime:
		if us, err := ParseDateTime(s); err == nil {
			return coerced{i: us}, true
		}
	case KindDuration:
		if us, err := ParseDuration(s); err == nil {
			return coerced{i: us}, true
		}
	case KindBinary:
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			return coerced{bin: b}, true
		}
	}
	return coerced{}, false
}
