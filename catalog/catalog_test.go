package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tbxark/formdoc/types"
)

const sampleYAML = `
categories:
  - name: ВМП
    description: high-tech care
    templates:
      - name: Протокол
        file: vmp/protocol.docx
      - name: Выписка
        file: vmp/extract.docx
  - name: ОМС
    templates:
      - name: ОМС
        file: oms.docx
rules:
  reserved: [hist_number]
  derived:
    main_diagnosis: diagnosis
  adjacent:
    - anchor: address
      field: address_fact
`

func TestParseKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.CategoryNames(); !reflect.DeepEqual(got, []string{"ВМП", "ОМС"}) {
		t.Errorf("categories = %v", got)
	}
	cat, err := c.Category("ВМП")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if got := cat.TemplateNames(); !reflect.DeepEqual(got, []string{"Протокол", "Выписка"}) {
		t.Errorf("templates = %v", got)
	}
	tpl, ok := cat.Template("Выписка")
	if !ok || tpl.File != "vmp/extract.docx" {
		t.Errorf("template lookup = %+v, %v", tpl, ok)
	}
	rules := c.FieldRules()
	if !rules.IsReserved("hist_number") || rules.IsReserved("current_date") {
		t.Errorf("unexpected reserved set: %v", rules.Reserved)
	}
	if rules.Derived["main_diagnosis"] != "diagnosis" || rules.IsDerived("sop_diagnosis") {
		t.Errorf("unexpected derived map: %v", rules.Derived)
	}
	if len(rules.Adjacent) != 1 || rules.Adjacent[0].Field != types.FieldAddressFact {
		t.Errorf("unexpected adjacency: %v", rules.Adjacent)
	}
}

func TestUnknownCategory(t *testing.T) {
	t.Parallel()
	_, err := Default().Category("нет")
	if !errors.Is(err, types.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "categories: []"},
		{"duplicate category", "categories: [{name: a, templates: []}, {name: a, templates: []}]"},
		{"template without file", "categories: [{name: a, templates: [{name: t}]}]"},
		{"duplicate template", "categories: [{name: a, templates: [{name: t, file: x}, {name: t, file: y}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if got := c.CategoryNames(); !reflect.DeepEqual(got, []string{"ОМС", "ВМП", "ВМП в ОМС"}) {
		t.Errorf("categories = %v", got)
	}
	if !reflect.DeepEqual(c.FieldRules(), types.DefaultRules()) {
		t.Errorf("default catalog should use the built-in rules")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
