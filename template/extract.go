// Package template locates DOCX templates and discovers the fields their placeholders name.
package template

import (
	"context"
	"log/slog"

	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/types"
)

type Extractor struct {
	Source Source
	Rules  types.Rules
}

func NewExtractor(source Source, rules types.Rules) *Extractor {
	return &Extractor{Source: source, Rules: rules}
}

// Extract lists the non-reserved fields of a template, first-seen order, no duplicates.
// An unavailable template yields an empty list; the failure is logged and not returned.
func (e *Extractor) Extract(ctx context.Context, ref string) []types.FieldName {
	doc, err := e.Source.Open(ctx, ref)
	if err != nil {
		slog.Warn("Template unavailable, no fields extracted", "template", ref, "error", err)
		return nil
	}
	fields := Fields(doc, e.Rules)
	slog.Debug("Extracted template fields", "template", ref, "fields", fields)
	return fields
}

// Fields scans body paragraphs and then table cells in row-major order.
func Fields(doc *document.Document, rules types.Rules) []types.FieldName {
	var out []types.FieldName
	seen := make(map[types.FieldName]struct{})
	collect := func(text string) {
		for _, name := range Scan(text) {
			field := types.FieldName(name)
			if !field.Valid() || rules.IsReserved(field) {
				continue
			}
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			out = append(out, field)
		}
	}
	for _, p := range doc.Paragraphs {
		collect(p.Text())
	}
	for _, t := range doc.Tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				collect(cell.Text())
			}
		}
	}
	return out
}
