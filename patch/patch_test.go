package patch

import (
	"reflect"
	"testing"

	"github.com/tbxark/formdoc/types"
)

func TestPointerEscaping(t *testing.T) {
	t.Parallel()
	tests := map[types.FieldName]string{
		"name":     "/name",
		"a/b":      "/a~1b",
		"x~y":      "/x~0y",
		"~1":       "/~01",
		"адрес":    "/адрес",
		"with sp ": "/with sp ",
	}
	for field, want := range tests {
		if got := Pointer(field); got != want {
			t.Errorf("Pointer(%q) = %q, want %q", field, got, want)
		}
		back, ok := fieldFromPointer(want)
		if !ok || back != field {
			t.Errorf("fieldFromPointer(%q) = %q, %v", want, back, ok)
		}
	}
}

func TestApply(t *testing.T) {
	t.Parallel()
	start := Answers{"name": "Ivan"}
	got, err := Apply(start, []Operation{
		Add("diagnosis", "Flu"),
		Add("sop_diagnosis", "Flu"),
		Add("name", "Petr"),
		{Op: OperationReplace, Path: Pointer("snils"), Value: "123"},
		Remove("missing"),
		Add("empty", ""),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := Answers{"name": "Petr", "diagnosis": "Flu", "sop_diagnosis": "Flu", "snils": "123", "empty": ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if start["name"] != "Ivan" || len(start) != 1 {
		t.Fatalf("input answers were modified: %v", start)
	}

	got, err = Apply(got, []Operation{Remove("diagnosis"), Remove("sop_diagnosis")})
	if err != nil {
		t.Fatalf("apply remove: %v", err)
	}
	if _, ok := got["diagnosis"]; ok {
		t.Errorf("diagnosis should be removed")
	}
	if _, ok := got["sop_diagnosis"]; ok {
		t.Errorf("sop_diagnosis should be removed")
	}
}

func TestApplyNilAnswers(t *testing.T) {
	t.Parallel()
	got, err := Apply(nil, []Operation{Add("a/b", "x")})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got["a/b"] != "x" {
		t.Fatalf("got %v", got)
	}
	empty, err := Apply(nil, nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty answers, got %v, %v", empty, err)
	}
}

func TestPrefill(t *testing.T) {
	t.Parallel()
	current := Answers{"name": "Ivan", "current_date": "01.01.2000"}
	initial := Answers{"current_date": "19.10.2026", "hist_number": "42", "skip": "", "name": "Ivan"}
	ops := Prefill(current, initial)
	want := []Operation{
		{Op: OperationReplace, Path: "/current_date", Value: "19.10.2026"},
		{Op: OperationAdd, Path: "/hist_number", Value: "42"},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops = %+v, want %+v", ops, want)
	}
	got, err := Apply(current, ops)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got["current_date"] != "19.10.2026" || got["hist_number"] != "42" || got["name"] != "Ivan" {
		t.Fatalf("got %v", got)
	}
}

func TestValidatePatchOperations(t *testing.T) {
	t.Parallel()
	allowed := Pointers([]types.FieldName{"hist_number", "current_date"})
	if err := ValidatePatchOperations([]Operation{Add("hist_number", "1")}, allowed); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := [][]Operation{
		{Add("name", "x")},
		{{Op: "move", Path: "/hist_number"}},
		{{Op: OperationAdd, Path: "/hist_number", Value: 1}},
		{{Op: OperationAdd, Path: "/a/b", Value: "x"}},
	}
	for _, ops := range bad {
		if err := ValidatePatchOperations(ops, allowed); err == nil {
			t.Errorf("expected error for %+v", ops)
		}
	}
	if err := ValidatePatchOperations([]Operation{Add("anything", "x")}, nil); err != nil {
		t.Errorf("empty allow-list should accept top-level pointers: %v", err)
	}
}
