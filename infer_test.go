package arbor

import "testing"

// The ordering rule that keeps numeric columns numeric: "0" and "1" are
// integers, never booleans.
func TestInferZeroOneAreIntegers(t *testing.T) {
	in := NewInferrer()
	inf := in.InferColumn([]string{"0", "1", "2"})
	if inf.Type != KindInt64 {
		t.Fatalf("inferred %s, want int64", inf.Type)
	}
	if inf.Type == KindBool {
		t.Fatal("numeric column classified as bool")
	}

	for _, v := range []string{"0", "1"} {
		if k := in.Classify(v); k != KindInt64 {
			t.Errorf("Classify(%q) = %s, want int64", v, k)
		}
	}
}

func TestClassifyOrder(t *testing.T) {
	in := NewInferrer()
	tests := []struct {
		input string
		want  Kind
	}{
		{"42", KindInt64},
		{"-17", KindInt64},
		{"3.14", KindFloat64},
		{"1e6", KindFloat64},
		{"true", KindBool},
		{"No", KindBool},
		{"enabled", KindBool},
		{"t", KindBool},
		{"PT1H30M", KindDuration},
		{"2024-12-07", KindDate},
		{"20241207", KindInt64}, // digits parse as integer before date
		{"2024-12-07T15:30:00Z", KindDateTime},
		{"hello", KindString},
		{"  5  ", KindInt64}, // trimmed before classification
	}
	for _, tt := range tests {
		if got := in.Classify(tt.input); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestBooleanTokensExcludeDigits(t *testing.T) {
	for tok := range booleanTokens {
		if tok == "0" || tok == "1" {
			t.Fatalf("boolean tokens include %q", tok)
		}
	}
}

func TestInferUniformColumns(t *testing.T) {
	in := NewInferrer()
	tests := []struct {
		name   string
		values []string
		want   Kind
	}{
		{"ints", []string{"1", "2", "3", "4"}, KindInt64},
		{"floats", []string{"1.5", "2.0", "-3.25"}, KindFloat64},
		{"bools", []string{"yes", "no", "on", "off"}, KindBool},
		{"dates", []string{"2024-01-01", "2024-06-15"}, KindDate},
		{"durations", []string{"PT5M", "PT1H"}, KindDuration},
		{"strings", []string{"red", "green", "blue"}, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf := in.InferColumn(tt.values)
			if inf.Type != tt.want {
				t.Errorf("inferred %s, want %s", inf.Type, tt.want)
			}
			if inf.Mixed {
				t.Error("uniform column reported mixed")
			}
		})
	}
}

func TestInferNullsMakeNullable(t *testing.T) {
	in := NewInferrer()
	inf := in.InferColumn([]string{"1", "NULL", "3", ""})
	if inf.Type != KindInt64 {
		t.Errorf("inferred %s, want int64", inf.Type)
	}
	if !inf.Nullable {
		t.Error("column with nulls not nullable")
	}
}

func TestInferAllNull(t *testing.T) {
	in := NewInferrer()
	inf := in.InferColumn([]string{"", "null", "N/A"})
	if inf.Type != KindString || !inf.Nullable {
		t.Errorf("all-null column = %s nullable=%v, want nullable string", inf.Type, inf.Nullable)
	}
}

func TestInferConfidenceBoundary(t *testing.T) {
	in := NewInferrer()

	// 19/20 = 0.95 exactly: the accept bound is inclusive.
	col := make([]string, 20)
	for i := range col {
		col[i] = "7"
	}
	col[19] = "x"
	inf := in.InferColumn(col)
	if inf.Type != KindInt64 {
		t.Errorf("at 0.95 exactly inferred %s, want int64", inf.Type)
	}

	// 10/20 = 0.50 exactly: the report bound is inclusive too.
	for i := 10; i < 20; i++ {
		col[i] = "word"
	}
	inf = in.InferColumn(col)
	if !inf.Mixed {
		t.Fatalf("at 0.50 exactly not reported mixed: %+v", inf)
	}
	if inf.Type != KindString || inf.Dominant != KindInt64 {
		t.Errorf("mixed = %+v, want string fallback with int64 dominant", inf)
	}
	if inf.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", inf.Confidence)
	}

	// Below 0.50 for every candidate: plain string, not mixed.
	inf = in.InferColumn([]string{"a", "b", "c", "1"})
	if inf.Mixed || inf.Type != KindString {
		t.Errorf("low confidence column = %+v, want plain string", inf)
	}
}

func TestInferCustomNullPatterns(t *testing.T) {
	in := NewInferrer("missing", "??")
	if !in.IsNull("MISSING") || !in.IsNull(" ?? ") {
		t.Error("custom null patterns not matched case-insensitively")
	}
	if in.IsNull("null") {
		t.Error("default pattern still active with custom set")
	}
}
