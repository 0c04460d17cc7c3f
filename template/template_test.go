package template

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/types"
)

func docx(t *testing.T, body string) []byte {
	t.Helper()
	doc, err := document.Parse([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return data
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func TestScan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "Пациент {name}, {birth_date}", []string{"name", "birth_date"}},
		{"duplicates kept", "{a} {a}", []string{"a", "a"}},
		{"first closing brace wins", "{a{b}", []string{"a{b"}},
		{"unmatched open", "price { 10 {x}", []string{" 10 {x"}},
		{"no closing brace", "{open", nil},
		{"newline breaks match", "{a\nb} {c}", []string{"c"}},
		{"empty ignored", "{}{x}", []string{"x"}},
		{"stray closing", "} {y} }", []string{"y"}},
		{"adjacent", "{a}{b}", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractOrderAndReserved(t *testing.T) {
	t.Parallel()
	body := para("№ {hist_number} от {current_date}") +
		para("{name} {birth_date} {name}") +
		`<w:tbl><w:tr><w:tc>` + para("{diagnosis}") + `</w:tc><w:tc>` + para("{address}") + `</w:tc></w:tr>` +
		`<w:tr><w:tc>` + para("{snils}") + para("{birth_date}") + `</w:tc></w:tr></w:tbl>` +
		para("{oms}")
	src := MapSource{"form.docx": docx(t, body)}
	ex := NewExtractor(src, types.DefaultRules())

	got := ex.Extract(context.Background(), "form.docx")
	want := []types.FieldName{"name", "birth_date", "oms", "diagnosis", "address", "snils"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractSplitRuns(t *testing.T) {
	t.Parallel()
	body := `<w:p><w:r><w:t>{na</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>me}</w:t></w:r></w:p>`
	src := MapSource{"split.docx": docx(t, body)}
	got := NewExtractor(src, types.DefaultRules()).Extract(context.Background(), "split.docx")
	if !reflect.DeepEqual(got, []types.FieldName{"name"}) {
		t.Fatalf("Extract = %v", got)
	}
}

func TestExtractInsideInlineWrappers(t *testing.T) {
	t.Parallel()
	body := `<w:p><w:hyperlink><w:r><w:t>{site}</w:t></w:r></w:hyperlink>` +
		`<w:ins w:id="1" w:author="a"><w:r><w:t>{name}</w:t></w:r></w:ins>` +
		`<w:sdt><w:sdtContent><w:r><w:t>{birth_date}</w:t></w:r></w:sdtContent></w:sdt></w:p>`
	src := MapSource{"wrapped.docx": docx(t, body)}
	got := NewExtractor(src, types.DefaultRules()).Extract(context.Background(), "wrapped.docx")
	want := []types.FieldName{"site", "name", "birth_date"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractUnavailableTemplate(t *testing.T) {
	t.Parallel()
	ex := NewExtractor(MapSource{}, types.DefaultRules())
	if got := ex.Extract(context.Background(), "missing.docx"); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}

	broken := MapSource{"broken.docx": []byte("not a docx")}
	if got := NewExtractor(broken, types.DefaultRules()).Extract(context.Background(), "broken.docx"); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
}

func TestDirSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ОМС.docx"), docx(t, para("{name}")), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewDirSource(dir)
	if !src.Exists("ОМС.docx") {
		t.Fatal("expected template to exist")
	}
	doc, err := src.Open(context.Background(), "ОМС.docx")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := doc.Paragraphs[0].Text(); got != "{name}" {
		t.Errorf("text = %q", got)
	}

	_, err = src.Open(context.Background(), "missing.docx")
	if !errors.Is(err, types.ErrTemplateUnavailable) {
		t.Fatalf("expected ErrTemplateUnavailable, got %v", err)
	}
}

func TestNotFoundIsUnavailable(t *testing.T) {
	t.Parallel()
	_, err := MapSource{}.Open(context.Background(), "x.docx")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, types.ErrTemplateUnavailable) {
		t.Fatalf("unexpected error chain: %v", err)
	}
	_, err = MapSource{"bad.docx": []byte("zip?")}.Open(context.Background(), "bad.docx")
	if errors.Is(err, ErrNotFound) || !errors.Is(err, types.ErrTemplateUnavailable) {
		t.Fatalf("unparsable template must not look missing: %v", err)
	}
}
