// Schema-driven parsing of JSON and JSON-Lines input.
//
// Load decodes a byte stream into trees (one per top-level JSON value; a
// JSON-Lines stream is simply many of them), then walks each tree against
// the schema under the selected validation policy. Accepted and coerced
// values are written into their final typed pool at the moment of
// acceptance — there is no later fix-up or widening pass over built nodes.
//
// Structural errors (malformed bytes) are fatal under every policy; they
// are never downgraded to a warning.
package arbor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// LoadOptions selects the validation policy and the diagnostic budget for
// one load.
type LoadOptions struct {
	Validation Policy
	// DiagnosticCap is a combined cap on errors plus warnings. Once
	// reached, new diagnostics are dropped, the report is marked
	// truncated, and processing continues. Zero means unlimited.
	DiagnosticCap int
}

// errSkipTree aborts the walk of one tree under Strict; the diagnostic has
// already been recorded by then.
var errSkipTree = errors.New("skip tree")

// Load parses JSON or JSON-Lines input into an Arbor. With a nil schema or
// the Off policy the input loads dynamically. The report is non-nil on
// success; a failed Absolute load returns only the error.
func Load(data []byte, schema *Schema, opts LoadOptions) (*Arbor, *Report, error) {
	if schema != nil {
		if err := schema.Validate(); err != nil {
			return nil, nil, err
		}
	}

	trees, err := decodeTrees(data)
	if err != nil {
		return nil, nil, err
	}

	l := &loader{
		b:      NewBuilder(),
		policy: opts.Validation,
		rep:    newReport(opts.DiagnosticCap),
	}
	if schema == nil {
		l.policy = ValidateOff
	}

	for i, tree := range trees {
		l.tree = i
		mark := l.b.mark()
		var id NodeID
		var werr error
		if l.policy == ValidateOff {
			id = l.dynamic(tree)
		} else {
			id, werr = l.typed(tree, schema.Root, false, "")
		}
		switch {
		case werr == nil:
			l.b.Root(id)
		case errors.Is(werr, errSkipTree):
			// Strict: the offending tree's partial nodes and pool slots
			// are rolled back, the rest load.
			l.b.rewind(mark)
		default:
			// Absolute: abort the entire load with one actionable error.
			return nil, nil, fmt.Errorf("%w: %s", ErrAborted, werr.Error())
		}
	}

	return l.b.Finish(), l.rep, nil
}

// decodeTrees splits the input into top-level JSON values. Numbers stay as
// json.Number so integers and floats remain distinguishable.
func decodeTrees(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var trees []any
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			return trees, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		trees = append(trees, v)
	}
}

type loader struct {
	b      *Builder
	policy Policy
	rep    *Report
	tree   int
}

// fail reports a validation failure at path. Absolute turns it into the
// aborting error; Strict records it and skips the tree. Lax never calls
// fail — it degrades to warn.
func (l *loader) fail(kind DiagKind, path, msg string) error {
	le := LoadError{Tree: l.tree, Path: path, Kind: kind, Message: msg}
	if l.policy == ValidateAbsolute {
		return &le
	}
	l.rep.addError(le)
	return errSkipTree
}

func (l *loader) warn(kind DiagKind, path, msg string) {
	l.rep.addWarning(LoadWarning{Tree: l.tree, Path: path, Kind: kind, Message: msg})
}

// typed walks one value against its declared type. nullable is the
// enclosing field's nullability; the root is treated as non-nullable.
func (l *loader) typed(v any, t SemanticType, nullable bool, path string) (NodeID, error) {
	if t.Kind == KindAny {
		return l.dynamic(v), nil
	}

	if v == nil {
		if nullable || t.Kind == KindNull {
			return l.nullNode(t.Kind), nil
		}
		if l.policy == ValidateLax {
			// Nullability is advisory under Lax: load everything,
			// report the rest.
			l.warn(DiagUnexpectedNull, path, "null for non-nullable "+t.Kind.String())
			return l.nullNode(t.Kind), nil
		}
		return 0, l.fail(DiagUnexpectedNull, path, "null for non-nullable "+t.Kind.String())
	}

	switch t.Kind {
	case KindArray:
		items, ok := v.([]any)
		if !ok {
			return l.mismatch(v, t, path)
		}
		item := TypeAny
		if t.Item != nil {
			item = *t.Item
		}
		children := make([]NodeID, 0, len(items))
		for i, el := range items {
			id, err := l.typed(el, item, false, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return 0, err
			}
			children = append(children, id)
		}
		return l.b.Array(children), nil

	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return l.mismatch(v, t, path)
		}
		members := make([]Member, 0, len(obj))
		claimed := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			claimed[f.Name] = true
			sub := joinPath(path, f.Name)
			fv, present := obj[f.Name]
			if !present {
				if !f.Required {
					continue
				}
				if l.policy == ValidateLax {
					l.warn(DiagMissingRequired, sub, "required field absent")
					members = append(members, Member{Name: f.Name, Node: l.nullNode(f.Type.Kind)})
					continue
				}
				return 0, l.fail(DiagMissingRequired, sub, "required field absent")
			}
			id, err := l.typed(fv, f.Type, f.Nullable, sub)
			if err != nil {
				return 0, err
			}
			members = append(members, Member{Name: f.Name, Node: id})
		}
		// Unschemed extra fields load dynamically, in sorted order so
		// the build is deterministic.
		extras := make([]string, 0)
		for name := range obj {
			if !claimed[name] {
				extras = append(extras, name)
			}
		}
		sort.Strings(extras)
		for _, name := range extras {
			members = append(members, Member{Name: name, Node: l.dynamic(obj[name])})
		}
		return l.b.Object(members), nil

	case KindNull:
		// Only null inhabits the Null type, and null was handled above.
		return l.mismatch(v, t, path)
	}

	if id, ok := l.accept(v, t.Kind); ok {
		return id, nil
	}
	return l.mismatch(v, t, path)
}

// accept stores a value whose JSON carrier matches the declared scalar
// kind directly. No coercion happens here.
func (l *loader) accept(v any, k Kind) (NodeID, bool) {
	switch k {
	case KindBool:
		if b, ok := v.(bool); ok {
			return l.b.Bool(b), true
		}
	case KindInt64:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return l.b.Int64(i), true
			}
		}
	case KindFloat64:
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return l.b.Float64(f), true
			}
		}
	case KindString:
		if s, ok := v.(string); ok {
			return l.b.String(s), true
		}
	case KindDate:
		if s, ok := v.(string); ok {
			if d, err := ParseDate(s); err == nil {
				return l.b.Date(d), true
			}
		}
	case KindDateTime:
		if s, ok := v.(string); ok {
			if us, err := ParseDateTime(s); err == nil {
				return l.b.DateTime(us), true
			}
		}
	case KindDuration:
		if s, ok := v.(string); ok {
			if us, err := ParseDuration(s); err == nil {
				return l.b.Duration(us), true
			}
		}
	case KindBinary:
		if s, ok := v.(string); ok {
			if b, err := base64.StdEncoding.DecodeString(s); err == nil {
				return l.b.Binary(b), true
			}
		}
	}
	return 0, false
}

// mismatch handles a value that failed direct acceptance. Lax runs the
// coercion ladder and degrades to a typed-pool null; Strict and Absolute
// report a type mismatch.
func (l *loader) mismatch(v any, t SemanticType, path string) (NodeID, error) {
	if l.policy != ValidateLax {
		return 0, l.fail(DiagTypeMismatch, path,
			"cannot store "+describe(v)+" as "+t.Kind.String())
	}
	if t.Kind.scalar() {
		if c, ok := coerce(normalize(v), t.Kind); ok {
			return l.store(t.Kind, c), nil
		}
	}
	l.warn(DiagCoercionFailed, path,
		"cannot coerce "+describe(v)+" to "+t.Kind.String())
	return l.nullNode(t.Kind), nil
}

// store writes a coerced value into the pool for kind k.
func (l *loader) store(k Kind, c coerced) NodeID {
	switch k {
	case KindBool:
		return l.b.Bool(c.b)
	case KindInt64:
		return l.b.Int64(c.i)
	case KindFloat64:
		return l.b.Float64(c.f)
	case KindString:
		return l.b.String(c.s)
	case KindDate:
		return l.b.Date(int32(c.i))
	case KindDateTime:
		return l.b.DateTime(c.i)
	case KindDuration:
		return l.b.Duration(c.i)
	case KindBinary:
		return l.b.Binary(c.bin)
	}
	panic("arbor: store of non-scalar kind " + k.String())
}

// nullNode writes the null matching a declared kind: a typed-pool null for
// scalars, a generic null node for containers and Null itself.
func (l *loader) nullNode(k Kind) NodeID {
	if k.scalar() {
		return l.b.TypedNull(k)
	}
	return l.b.Null()
}

// dynamic loads a value with no schema: the JSON shape picks the pool.
// Object keys are walked in sorted order so the build is deterministic.
func (l *loader) dynamic(v any) NodeID {
	switch x := v.(type) {
	case nil:
		return l.b.Null()
	case bool:
		return l.b.Bool(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return l.b.Int64(i)
		}
		f, _ := x.Float64()
		return l.b.Float64(f)
	case string:
		return l.b.String(x)
	case []any:
		children := make([]NodeID, len(x))
		for i, el := range x {
			children[i] = l.dynamic(el)
		}
		return l.b.Array(children)
	case map[string]any:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		members := make([]Member, len(names))
		for i, name := range names {
			members[i] = Member{Name: name, Node: l.dynamic(x[name])}
		}
		return l.b.Object(members)
	}
	// goccy produces no other shapes; treat anything else as null.
	return l.b.Null()
}

// normalize resolves json.Number to int64 or float64 for the coercion
// ladder.
func normalize(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

// describe names a decoded value's JSON shape for diagnostics.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "value"
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
