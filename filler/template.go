package filler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/template"
	"github.com/tbxark/formdoc/types"
)

// DefaultFallbackTitle heads a synthesized document when the template exists but is unreadable.
const DefaultFallbackTitle = "МЕДИЦИНСКИЙ ДОКУМЕНТ"

// TemplateError reports a template that could not be filled.
type TemplateError struct {
	Template string
	Ref      string
	Missing  bool
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Missing {
		return fmt.Sprintf("template %q (%s) is missing: %v", e.Template, e.Ref, e.Err)
	}
	return fmt.Sprintf("template %q (%s) is unreadable: %v", e.Template, e.Ref, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// FillTemplate opens ref and fills it. On failure the error is a *TemplateError.
func FillTemplate(ctx context.Context, src template.Source, name, ref string, values types.Values) (*document.Document, error) {
	doc, err := src.Open(ctx, ref)
	if err != nil {
		return nil, &TemplateError{
			Template: name,
			Ref:      ref,
			Missing:  errors.Is(err, template.ErrNotFound),
			Err:      err,
		}
	}
	Fill(doc, values)
	return doc, nil
}

// Fallback synthesizes a heading and one "field: value" line per entry, in values order.
func Fallback(title string, values types.Values) *document.Document {
	if title == "" {
		title = DefaultFallbackTitle
	}
	doc := document.New()
	doc.AddHeading(title)
	for _, v := range values {
		doc.AddParagraph(fmt.Sprintf("%s: %s", v.Field, v.Value), "")
	}
	return doc
}

// FillOrFallback always returns a document. A missing template is replaced by a document
// titled with its display name, an unreadable one by DefaultFallbackTitle; the template
// error is returned alongside for logging.
func FillOrFallback(ctx context.Context, src template.Source, name, ref string, values types.Values) (*document.Document, error) {
	doc, err := FillTemplate(ctx, src, name, ref, values)
	if err == nil {
		return doc, nil
	}
	title := DefaultFallbackTitle
	var te *TemplateError
	if errors.As(err, &te) && te.Missing {
		title = name
	}
	return Fallback(title, values), err
}
