// Package arbor is a typed, columnar store for semi-structured tree data.
// JSON-like forests are parsed into an immutable Arbor: a set of fixed-size
// tagged nodes whose scalar values live in append-only typed column pools.
//
// The type model has two layers. The user-facing semantic layer adds dates,
// datetimes, durations and binary to the JSON scalars, plus arrays, objects
// and a wildcard Any. Compiling a semantic Schema into the physical storage
// layer is total and deterministic; the reverse mapping is deliberately
// partial — a physical array or object carries no record of which semantic
// container produced it.
//
// Loading is schema-driven under one of four validation policies (Off,
// Absolute, Strict, Lax), or schema-less via the column type inference
// engine (CSV import). Values are written into their final pool the moment
// they are accepted or coerced; there is no fix-up pass over built data.
package arbor

import "errors"

// Sentinel errors for programmatic handling. Structured errors (FormatError,
// RangeError, AmbiguityError, DurationError, DuplicateFieldError) wrap these
// so callers can branch with errors.Is without inspecting fields.
var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrOutOfRange          = errors.New("value out of range")
	ErrAmbiguousFormat     = errors.New("ambiguous format")
	ErrUnsupportedDuration = errors.New("unsupported duration")
	ErrDuplicateField      = errors.New("duplicate field name")
	ErrAborted             = errors.New("load aborted")
	ErrNotFlat             = errors.New("forest is not flat")
	ErrEmptyInput          = errors.New("empty input")
	ErrBadDescription      = errors.New("bad schema description")
)

// FormatError reports input that matches no accepted textual form.
type FormatError struct {
	Input    string // offending text
	Expected string // accepted forms, human-readable
}

func (e *FormatError) Error() string {
	return "invalid format " + quote(e.Input) + ": expected " + e.Expected
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// RangeError reports syntactically valid input whose value cannot be
// represented (bad calendar day, overflowing magnitude).
type RangeError struct {
	Input  string
	Reason string
}

func (e *RangeError) Error() string {
	return "out of range " + quote(e.Input) + ": " + e.Reason
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// AmbiguityError reports input that could parse more than one way.
// Ambiguous forms are rejected rather than guessed: a silently misparsed
// date corrupts data irrecoverably.
type AmbiguityError struct {
	Input string
	Hint  string
}

func (e *AmbiguityError) Error() string {
	return "ambiguous format " + quote(e.Input) + ": " + e.Hint
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguousFormat }

// DurationError reports a duration using calendar components (years,
// months, weeks, days). Calendar-length durations are out of scope, not
// approximated.
type DurationError struct {
	Input  string
	Reason string
}

func (e *DurationError) Error() string {
	return "unsupported duration " + quote(e.Input) + ": " + e.Reason
}

func (e *DurationError) Unwrap() error { return ErrUnsupportedDuration }

// DuplicateFieldError reports two fields with the same name inside one
// object type.
type DuplicateFieldError struct {
	Name string
	Path string // dotted path of the containing object; "" for the root
}

func (e *DuplicateFieldError) Error() string {
	at := e.Path
	if at == "" {
		at = "root"
	}
	return "duplicate field " + quote(e.Name) + " in " + at
}

func (e *DuplicateFieldError) Unwrap() error { return ErrDuplicateField }

func quote(s string) string { return `"` + s + `"` }
