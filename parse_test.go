package arbor

import (
	"errors"
	"strings"
	"testing"
)

func ageSchema() *Schema {
	return &Schema{Root: ObjectOf(
		Field{Name: "age", Type: TypeInt64, Required: true},
	)}
}

func TestLoadOffDynamic(t *testing.T) {
	input := []byte(`{"name":"oak","rings":120,"alive":true,"girth":3.5,"planted":null,"limbs":[1,2,3]}`)
	a, rep, err := Load(input, nil, LoadOptions{})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !rep.Ok() || len(rep.Warnings) != 0 {
		t.Fatalf("off policy produced diagnostics: %+v", rep)
	}
	if len(a.Roots()) != 1 {
		t.Fatalf("roots = %d, want 1", len(a.Roots()))
	}

	root := a.Roots()[0]
	if a.Kind(root) != KindObject {
		t.Fatalf("root kind = %s", a.Kind(root))
	}
	name, _ := a.FieldAt(root, "name")
	if v, ok := a.StringAt(name); !ok || v != "oak" {
		t.Errorf("name = %q,%v", v, ok)
	}
	rings, _ := a.FieldAt(root, "rings")
	if v, ok := a.Int64At(rings); !ok || v != 120 {
		t.Errorf("rings = %d,%v (must be int64, not float64)", v, ok)
	}
	girth, _ := a.FieldAt(root, "girth")
	if v, ok := a.Float64At(girth); !ok || v != 3.5 {
		t.Errorf("girth = %v,%v", v, ok)
	}
	planted, _ := a.FieldAt(root, "planted")
	if a.Kind(planted) != KindNull {
		t.Errorf("planted kind = %s, want null", a.Kind(planted))
	}
	limbs, _ := a.FieldAt(root, "limbs")
	if children, ok := a.ArrayAt(limbs); !ok || len(children) != 3 {
		t.Errorf("limbs = %v,%v", children, ok)
	}
}

func TestLoadJSONLines(t *testing.T) {
	input := []byte("{\"age\": 30}\n{\"age\": 40}\n{\"age\": 50}\n")
	a, _, err := Load(input, ageSchema(), LoadOptions{Validation: ValidateStrict})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(a.Roots()) != 3 {
		t.Fatalf("roots = %d, want 3", len(a.Roots()))
	}
	for i, root := range a.Roots() {
		age, _ := a.FieldAt(root, "age")
		if v, _ := a.Int64At(age); v != int64(30+10*i) {
			t.Errorf("tree %d age = %d", i, v)
		}
	}
}

func TestLoadStructuralErrorAlwaysFatal(t *testing.T) {
	for _, policy := range []Policy{ValidateOff, ValidateAbsolute, ValidateStrict, ValidateLax} {
		_, _, err := Load([]byte(`{"age": 30`), ageSchema(), LoadOptions{Validation: policy})
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("policy %s: error = %v, want ErrMalformedInput", policy, err)
		}
	}
}

// The Lax contract: load everything, report the rest. A failed coercion
// lands as a null slot in the field's correctly-typed pool — not a generic
// null node — regardless of declared nullability.
func TestLoadLaxCoercionFailure(t *testing.T) {
	a, rep, err := Load([]byte(`{"age": "abc"}`), ageSchema(), LoadOptions{Validation: ValidateLax})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Errors) != 0 {
		t.Fatalf("lax produced errors: %+v", rep.Errors)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0].Kind != DiagCoercionFailed {
		t.Fatalf("warnings = %+v, want one CoercionFailed", rep.Warnings)
	}
	if rep.Warnings[0].Path != "age" {
		t.Errorf("warning path = %q, want age", rep.Warnings[0].Path)
	}
	if len(a.Roots()) != 1 {
		t.Fatalf("lax skipped a tree: roots = %d", len(a.Roots()))
	}

	age, ok := a.FieldAt(a.Roots()[0], "age")
	if !ok {
		t.Fatal("age member missing")
	}
	if a.Kind(age) != KindInt64 {
		t.Errorf("age node kind = %s, want int64 (typed-pool null)", a.Kind(age))
	}
	if !a.IsNull(age) {
		t.Error("age not null")
	}
	if a.pools.ints.len() != 1 {
		t.Errorf("int64 pool len = %d, want the null slot", a.pools.ints.len())
	}
}

func TestLoadLaxCoercionSuccess(t *testing.T) {
	input := []byte(`{"age": "42"} {"age": 7.0}`)
	a, rep, err := Load(input, ageSchema(), LoadOptions{Validation: ValidateLax})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("successful coercions warned: %+v", rep.Warnings)
	}
	for i, want := range []int64{42, 7} {
		age, _ := a.FieldAt(a.Roots()[i], "age")
		if v, ok := a.Int64At(age); !ok || v != want {
			t.Errorf("tree %d age = %d,%v, want %d", i, v, ok, want)
		}
	}
}

func TestLoadLaxMissingRequired(t *testing.T) {
	a, rep, err := Load([]byte(`{}`), ageSchema(), LoadOptions{Validation: ValidateLax})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0].Kind != DiagMissingRequired {
		t.Fatalf("warnings = %+v, want one MissingRequired", rep.Warnings)
	}
	age, ok := a.FieldAt(a.Roots()[0], "age")
	if !ok || a.Kind(age) != KindInt64 || !a.IsNull(age) {
		t.Error("missing required field did not become a typed-pool null")
	}
}

func TestLoadLaxNullForNonNullable(t *testing.T) {
	_, rep, err := Load([]byte(`{"age": null}`), ageSchema(), LoadOptions{Validation: ValidateLax})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Warnings) != 1 || rep.Warnings[0].Kind != DiagUnexpectedNull {
		t.Fatalf("warnings = %+v, want one UnexpectedNull", rep.Warnings)
	}
}

// Strict isolates the failure to the offending tree: one error recorded,
// that tree contributes nothing, other trees load.
func TestLoadStrictSkipsTree(t *testing.T) {
	input := []byte("{\"age\": \"abc\"}\n{\"age\": 33}\n")
	a, rep, err := Load(input, ageSchema(), LoadOptions{Validation: ValidateStrict})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", rep.Errors)
	}
	le := rep.Errors[0]
	if le.Kind != DiagTypeMismatch || le.Tree != 0 || le.Path != "age" {
		t.Errorf("error = %+v", le)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("strict produced warnings: %+v", rep.Warnings)
	}
	if len(a.Roots()) != 1 {
		t.Fatalf("roots = %d, want 1 (bad tree skipped)", len(a.Roots()))
	}
	age, _ := a.FieldAt(a.Roots()[0], "age")
	if v, _ := a.Int64At(age); v != 33 {
		t.Errorf("surviving tree age = %d, want 33", v)
	}
}

// A skipped tree must not leave its partially built nodes or pool slots in
// the finished Arbor: node count and pool lengths reflect survivors only.
func TestLoadStrictDiscardsPartialTree(t *testing.T) {
	schema := &Schema{Root: ObjectOf(
		Field{Name: "a", Type: TypeInt64, Required: true},
		Field{Name: "b", Type: TypeInt64, Required: true},
	)}
	// Tree 0 builds the "a" node before failing on "b".
	input := []byte("{\"a\": 1, \"b\": \"x\"}\n{\"a\": 2, \"b\": 3}\n")
	a, rep, err := Load(input, schema, LoadOptions{Validation: ValidateStrict})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Errors) != 1 || len(a.Roots()) != 1 {
		t.Fatalf("errors = %d, roots = %d, want 1 and 1", len(rep.Errors), len(a.Roots()))
	}
	if n := a.pools.ints.len(); n != 2 {
		t.Errorf("int64 pool len = %d, want 2 (skipped tree's slot rolled back)", n)
	}
	if a.Len() != 3 {
		t.Errorf("node count = %d, want 3 (two ints + object)", a.Len())
	}
	va, _ := a.FieldAt(a.Roots()[0], "a")
	vb, _ := a.FieldAt(a.Roots()[0], "b")
	if x, _ := a.Int64At(va); x != 2 {
		t.Errorf("a = %d, want 2", x)
	}
	if x, _ := a.Int64At(vb); x != 3 {
		t.Errorf("b = %d, want 3", x)
	}
}

func TestLoadStrictSingleBadTree(t *testing.T) {
	a, rep, err := Load([]byte(`{"age": "abc"}`), ageSchema(), LoadOptions{Validation: ValidateStrict})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(a.Roots()) != 0 {
		t.Errorf("roots = %d, want 0", len(a.Roots()))
	}
	if len(rep.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(rep.Errors))
	}
}

// Absolute is all-or-nothing: the first problem aborts the whole load with
// a single actionable error.
func TestLoadAbsoluteAborts(t *testing.T) {
	input := []byte("{\"age\": 30}\n{\"age\": \"abc\"}\n{\"age\": 50}\n")
	a, rep, err := Load(input, ageSchema(), LoadOptions{Validation: ValidateAbsolute})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("error = %v, want ErrAborted", err)
	}
	if a != nil || rep != nil {
		t.Error("aborted load still returned results")
	}
	if !strings.Contains(err.Error(), "age") {
		t.Errorf("abort error not actionable: %v", err)
	}
}

func TestLoadAbsoluteSuccess(t *testing.T) {
	a, rep, err := Load([]byte(`{"age": 30}`), ageSchema(), LoadOptions{Validation: ValidateAbsolute})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(a.Roots()) != 1 || !rep.Ok() {
		t.Errorf("roots = %d, report = %+v", len(a.Roots()), rep)
	}
}

func TestLoadDiagnosticCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString("{\"age\": \"bad\"}\n")
	}
	a, rep, err := Load([]byte(sb.String()), ageSchema(), LoadOptions{
		Validation:    ValidateLax,
		DiagnosticCap: 3,
	})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rep.Warnings) != 3 {
		t.Errorf("warnings = %d, want capped at 3", len(rep.Warnings))
	}
	if !rep.Truncated {
		t.Error("capped report not marked truncated")
	}
	// The budget bounds diagnostics, not work: every tree still loads.
	if len(a.Roots()) != 10 {
		t.Errorf("roots = %d, want 10", len(a.Roots()))
	}
}

func TestLoadTemporalFields(t *testing.T) {
	schema := &Schema{Root: ObjectOf(
		Field{Name: "day", Type: TypeDate},
		Field{Name: "at", Type: TypeDateTime},
		Field{Name: "took", Type: TypeDuration},
		Field{Name: "payload", Type: TypeBinary},
	)}
	input := []byte(`{"day":"2024-12-07","at":"2024-12-07T15:30:00Z","took":"PT1H30M","payload":"aGVsbG8="}`)
	a, rep, err := Load(input, schema, LoadOptions{Validation: ValidateStrict})
	if err != nil || !rep.Ok() {
		t.Fatalf("Load: err=%v rep=%+v", err, rep)
	}

	root := a.Roots()[0]
	day, _ := a.FieldAt(root, "day")
	if v, _ := a.DateAt(day); FormatDate(v) != "2024-12-07" {
		t.Errorf("day = %s", FormatDate(v))
	}
	at, _ := a.FieldAt(root, "at")
	if v, _ := a.DateTimeAt(at); FormatDateTime(v) != "2024-12-07T15:30:00Z" {
		t.Errorf("at = %s", FormatDateTime(v))
	}
	took, _ := a.FieldAt(root, "took")
	if v, _ := a.DurationAt(took); FormatDuration(v) != "PT1H30M" {
		t.Errorf("took = %s", FormatDuration(v))
	}
	payload, _ := a.FieldAt(root, "payload")
	if v, _ := a.BinaryAt(payload); string(v) != "hello" {
		t.Errorf("payload = %q", v)
	}
}

func TestLoadNullableFieldSilentNull(t *testing.T) {
	schema := &Schema{Root: ObjectOf(
		Field{Name: "score", Type: TypeFloat64, Nullable: true},
	)}
	a, rep, err := Load([]byte(`{"score": null}`), schema, LoadOptions{Validation: ValidateStrict})
	if err != nil || !rep.Ok() || len(rep.Warnings) != 0 {
		t.Fatalf("nullable null produced diagnostics: err=%v rep=%+v", err, rep)
	}
	score, _ := a.FieldAt(a.Roots()[0], "score")
	if a.Kind(score) != KindFloat64 || !a.IsNull(score) {
		t.Error("nullable null is not a typed-pool null")
	}
}

func TestLoadExtraFieldsKeptDynamically(t *testing.T) {
	a, rep, err := Load([]byte(`{"age": 30, "nickname": "speedy"}`), ageSchema(),
		LoadOptions{Validation: ValidateStrict})
	if err != nil || !rep.Ok() {
		t.Fatalf("Load: err=%v rep=%+v", err, rep)
	}
	nick, ok := a.FieldAt(a.Roots()[0], "nickname")
	if !ok {
		t.Fatal("extra field dropped")
	}
	if v, _ := a.StringAt(nick); v != "speedy" {
		t.Errorf("nickname = %q", v)
	}
}

func TestLoadNestedSchema(t *testing.T) {
	schema := &Schema{Root: ObjectOf(
		Field{Name: "name", Type: TypeString, Required: true},
		Field{Name: "samples", Type: ArrayOf(ObjectOf(
			Field{Name: "at", Type: TypeDateTime, Required: true},
			Field{Name: "value", Type: TypeFloat64, Nullable: true},
		))},
	)}
	input := []byte(`{"name":"sensor-1","samples":[
		{"at":"2024-01-01T00:00:00Z","value":1.5},
		{"at":"2024-01-01T00:01:00Z","value":null}
	]}`)
	a, rep, err := Load(input, schema, LoadOptions{Validation: ValidateAbsolute})
	if err != nil || !rep.Ok() {
		t.Fatalf("Load: err=%v rep=%+v", err, rep)
	}

	samples, _ := a.FieldAt(a.Roots()[0], "samples")
	children, _ := a.ArrayAt(samples)
	if len(children) != 2 {
		t.Fatalf("samples = %d, want 2", len(children))
	}
	v1, _ := a.FieldAt(children[1], "value")
	if a.Kind(v1) != KindFloat64 || !a.IsNull(v1) {
		t.Error("nested nullable null is not a typed-pool null")
	}
}

func TestLoadInvalidSchemaRejected(t *testing.T) {
	bad := &Schema{Root: ObjectOf(
		Field{Name: "x", Type: TypeInt64},
		Field{Name: "x", Type: TypeInt64},
	)}
	_, _, err := Load([]byte(`{}`), bad, LoadOptions{Validation: ValidateStrict})
	if !errors.Is(err, ErrDuplicateField) {
		t.Errorf("error = %v, want ErrDuplicateField", err)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	a, rep, err := Load(nil, nil, LoadOptions{})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if a.Len() != 0 || len(a.Roots()) != 0 || !rep.Ok() {
		t.Errorf("empty load: len=%d roots=%d", a.Len(), len(a.Roots()))
	}
}
