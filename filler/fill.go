// Package filler substitutes answers into templates and writes the filled documents.
package filler

import (
	"strings"

	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/types"
)

// Fill replaces every "{field}" of values in body paragraphs and table cell paragraphs and
// returns the number of paragraphs it rewrote. A rewritten paragraph keeps the formatting of
// its first run and collapses into a single run.
func Fill(doc *document.Document, values types.Values) int {
	changed := 0
	doc.EachParagraph(func(p *document.Paragraph) {
		if fillParagraph(p, values) {
			changed++
		}
	})
	return changed
}

func fillParagraph(p *document.Paragraph, values types.Values) bool {
	text := p.Text()
	if !strings.Contains(text, "{") {
		return false
	}
	var format document.Format
	if len(p.Runs) > 0 {
		format = p.Runs[0].Format
	}
	replaced := false
	for _, v := range values {
		placeholder := v.Field.Placeholder()
		if !strings.Contains(text, placeholder) {
			continue
		}
		text = strings.ReplaceAll(text, placeholder, v.Value)
		replaced = true
	}
	if !replaced {
		return false
	}
	p.SetText(text, format)
	return true
}
