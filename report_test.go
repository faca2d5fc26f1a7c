package arbor

import "testing"

func TestPolicyString(t *testing.T) {
	tests := []struct {
		p    Policy
		want string
	}{
		{ValidateOff, "off"},
		{ValidateAbsolute, "absolute"},
		{ValidateStrict, "strict"},
		{ValidateLax, "lax"},
		{Policy(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Policy(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestDiagKindString(t *testing.T) {
	tests := []struct {
		k    DiagKind
		want string
	}{
		{DiagTypeMismatch, "type mismatch"},
		{DiagUnexpectedNull, "unexpected null"},
		{DiagMissingRequired, "missing required field"},
		{DiagCoercionFailed, "coercion failed"},
		{DiagKind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("DiagKind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestReportBudget(t *testing.T) {
	r := newReport(3)
	r.addError(LoadError{Message: "e1"})
	r.addWarning(LoadWarning{Message: "w1"})
	if r.Truncated {
		t.Error("truncated below the cap")
	}

	// The cap is combined across errors and warnings.
	r.addError(LoadError{Message: "e2"})
	r.addWarning(LoadWarning{Message: "dropped"})
	r.addError(LoadError{Message: "dropped"})

	if len(r.Errors) != 2 || len(r.Warnings) != 1 {
		t.Errorf("kept %d errors, %d warnings, want 2 and 1", len(r.Errors), len(r.Warnings))
	}
	if !r.Truncated {
		t.Error("over-budget report not marked truncated")
	}
}

func TestReportUnlimited(t *testing.T) {
	r := newReport(0)
	for i := 0; i < 1000; i++ {
		r.addWarning(LoadWarning{})
	}
	if r.Truncated || len(r.Warnings) != 1000 {
		t.Errorf("unlimited report: truncated=%v n=%d", r.Truncated, len(r.Warnings))
	}
}

func TestReportOk(t *testing.T) {
	r := newReport(0)
	r.addWarning(LoadWarning{})
	if !r.Ok() {
		t.Error("warnings alone failed the report")
	}
	r.addError(LoadError{})
	if r.Ok() {
		t.Error("report with errors is Ok")
	}
}
