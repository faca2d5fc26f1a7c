// Column type inference for the schema-less path.
//
// Given raw text values (a CSV column, typically), the engine classifies
// each value in a fixed order: Integer, Float, Boolean, Duration, Date,
// DateTime, then String as the fallback. The order is the single most
// important correctness rule here — in particular "0" and "1" must classify
// as integers, never booleans, so boolean tokens are restricted to lexical
// words and tried only after the numeric parsers. Reversing that silently
// corrupts numeric columns into booleans.
package arbor

import (
	"strconv"
	"strings"
)

// defaultNullPatterns mark a value as "no value" before classification.
// Matching is case-insensitive on the trimmed value.
var defaultNullPatterns = []string{"", "null", "nil", "none", "na", "n/a", "-"}

// booleanTokens are the only lexical forms that classify as Bool. "0" and
// "1" are deliberately absent: they are integers.
var booleanTokens = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"on": true, "off": false,
	"t": true, "f": false,
	"y": true, "n": false,
	"enabled": true, "disabled": false,
}

// Inference is the result of classifying one column.
type Inference struct {
	Type       Kind // inferred column type; String when mixed or unknown
	Nullable   bool // a null pattern or empty value was seen
	Mixed      bool // no candidate reached the acceptance threshold
	Dominant   Kind // best candidate when Mixed
	Confidence float64
}

// Confidence thresholds for column inference. At or above accept, the
// candidate is taken uniformly; at or above report, a Mixed result names
// the dominant candidate with String as the fallback; below, the column is
// String. Both bounds are inclusive (see TestInferConfidenceBoundary).
const (
	confidenceAccept = 0.95
	confidenceReport = 0.50
)

// Inferrer classifies text values. The zero value uses the default null
// patterns; NewInferrer installs a custom set.
type Inferrer struct {
	nulls map[string]bool
}

// NewInferrer returns an Inferrer treating the given patterns as null.
// With no patterns the default set is used.
func NewInferrer(nullPatterns ...string) *Inferrer {
	in := &Inferrer{}
	if len(nullPatterns) == 0 {
		nullPatterns = defaultNullPatterns
	}
	in.nulls = make(map[string]bool, len(nullPatterns))
	for _, p := range nullPatterns {
		in.nulls[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return in
}

// IsNull reports whether a raw value matches a null pattern.
func (in *Inferrer) IsNull(s string) bool {
	if in.nulls == nil {
		*in = *NewInferrer()
	}
	return in.nulls[strings.ToLower(strings.TrimSpace(s))]
}

// Classify returns the kind of a single non-null value, in the fixed
// classification order. Unparseable values are String.
func (in *Inferrer) Classify(s string) Kind {
	s = strings.TrimSpace(s)
	for _, k := range classifyOrder {
		if parseAs(s, k) {
			return k
		}
	}
	return KindString
}

var classifyOrder = [...]Kind{
	KindInt64, KindFloat64, KindBool, KindDuration, KindDate, KindDateTime,
}

// parseAs reports whether s is a well-formed value of kind k.
func parseAs(s string, k Kind) bool {
	switch k {
	case KindInt64:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case KindFloat64:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	case KindBool:
		_, ok := booleanTokens[strings.ToLower(s)]
		return ok
	case KindDuration:
		_, err := ParseDuration(s)
		return err == nil
	case KindDate:
		_, err := ParseDate(s)
		return err == nil
	case KindDateTime:
		_, err := ParseDateTime(s)
		return err == nil
	}
	return false
}

// InferColumn classifies a whole column. Per candidate, the parse success
// fraction over non-null samples decides:
//
//	>= 0.95  accept the candidate uniformly (first in order wins)
//	>= 0.50  Mixed: report the dominant candidate, fall back to String
//	below    String
//
// An all-null column infers as nullable String.
func (in *Inferrer) InferColumn(values []string) Inference {
	var samples []string
	nullable := false
	for _, v := range values {
		if in.IsNull(v) {
			nullable = true
			continue
		}
		samples = append(samples, strings.TrimSpace(v))
	}
	if len(samples) == 0 {
		return Inference{Type: KindString, Nullable: true}
	}

	best := KindString
	bestFrac := 0.0
	for _, k := range classifyOrder {
		hits := 0
		for _, s := range samples {
			if parseAs(s, k) {
				hits++
			}
		}
		frac := float64(hits) / float64(len(samples))
		if frac >= confidenceAccept {
			return Inference{Type: k, Nullable: nullable, Confidence: frac}
		}
		if frac > bestFrac {
			best, bestFrac = k, frac
		}
	}

	if bestFrac >= confidenceReport {
		return Inference{
			Type:       KindString,
			Nullable:   nullable,
			Mixed:      true,
			Dominant:   best,
			Confidence: bestFrac,
		}
	}
	return Inference{Type: KindString, Nullable: nullable, Confidence: bestFrac}
}
