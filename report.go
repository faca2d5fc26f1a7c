// Load diagnostics: policies, error/warning records, and the budget.
package arbor

import "strconv"

// Policy selects how schema mismatches are handled during a load. Chosen
// once per load, never mixed mid-load.
type Policy int

const (
	// ValidateOff consults no schema; every structurally valid input
	// loads dynamically.
	ValidateOff Policy = iota
	// ValidateAbsolute aborts the entire load on the first mismatch or
	// missing required field. All or nothing.
	ValidateAbsolute
	// ValidateStrict records an error and skips the containing tree,
	// then continues with the next tree.
	ValidateStrict
	// ValidateLax attempts coercion; on failure it writes a typed-pool
	// null plus a warning and never skips a tree.
	ValidateLax
)

func (p Policy) String() string {
	switch p {
	case ValidateOff:
		return "off"
	case ValidateAbsolute:
		return "absolute"
	case ValidateStrict:
		return "strict"
	case ValidateLax:
		return "lax"
	}
	return "unknown"
}

// DiagKind classifies one diagnostic.
type DiagKind int

const (
	DiagTypeMismatch DiagKind = iota
	DiagUnexpectedNull
	DiagMissingRequired
	DiagCoercionFailed
)

func (k DiagKind) String() string {
	switch k {
	case DiagTypeMismatch:
		return "type mismatch"
	case DiagUnexpectedNull:
		return "unexpected null"
	case DiagMissingRequired:
		return "missing required field"
	case DiagCoercionFailed:
		return "coercion failed"
	}
	return "unknown"
}

// LoadError is a per-tree validation failure (Strict/Absolute).
type LoadError struct {
	Tree    int    // index of the tree in input order
	Path    string // dotted path to the offending value
	Kind    DiagKind
	Message string
}

func (e *LoadError) Error() string {
	return "tree " + strconv.Itoa(e.Tree) + " at " + pathOrRoot(e.Path) + ": " + e.Message
}

// LoadWarning is a degraded-but-loaded condition (Lax).
type LoadWarning struct {
	Tree    int
	Path    string
	Kind    DiagKind
	Message string
}

// Report aggregates diagnostics for one load. When the combined cap is
// reached, collection stops, Truncated is set, and processing continues —
// the budget bounds memory, not work.
type Report struct {
	Errors    []LoadError
	Warnings  []LoadWarning
	Truncated bool

	cap int // 0 = unlimited
}

func newReport(cap int) *Report { return &Report{cap: cap} }

func (r *Report) full() bool {
	return r.cap > 0 && len(r.Errors)+len(r.Warnings) >= r.cap
}

func (r *Report) addError(e LoadError) {
	if r.full() {
		r.Truncated = true
		return
	}
	r.Errors = append(r.Errors, e)
}

func (r *Report) addWarning(w LoadWarning) {
	if r.full() {
		r.Truncated = true
		return
	}
	r.Warnings = append(r.Warnings, w)
}

// Ok reports whether the load produced no errors. Warnings alone do not
// fail a load.
func (r *Report) Ok() bool { return len(r.Errors) == 0 }

func pathOrRoot(p string) string {
	if p == "" {
		return "root"
	}
	return p
}
