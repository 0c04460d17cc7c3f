// Package document holds the structured view of a word-processing document used by
// extraction and filling, and reads and writes it as DOCX.
package document

import "strings"

// Format carries the run attributes kept across a placeholder substitution.
// Nil pointers, empty strings and zero sizes mean "not set on the run".
type Format struct {
	Bold      *bool  `json:"bold,omitempty"`
	Italic    *bool  `json:"italic,omitempty"`
	Underline string `json:"underline,omitempty"`
	FontName  string `json:"font_name,omitempty"`
	// FontSize is in half-points, as stored in w:sz.
	FontSize int `json:"font_size,omitempty"`
}

func (f Format) IsZero() bool {
	return f.Bold == nil && f.Italic == nil && f.Underline == "" && f.FontName == "" && f.FontSize == 0
}

type Run struct {
	Text   string
	Format Format
}

type Paragraph struct {
	Style string
	Runs  []Run

	el *node
	ns string
}

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// SetText replaces every run with a single run holding text and format. Runs inside
// hyperlinks and other inline wrappers are folded in and the wrappers dropped; the new run
// takes the place of the first one removed.
func (p *Paragraph) SetText(text string, format Format) {
	p.Runs = []Run{{Text: text, Format: format}}
	if p.el == nil {
		return
	}
	run := buildRun(p.ns, text, format)
	kept := make([]*node, 0, len(p.el.children)+1)
	placed := false
	for _, child := range p.el.children {
		if isElement(child, p.ns, "r") || isInlineWrapper(child, p.ns) {
			if !placed {
				kept = append(kept, run)
				placed = true
			}
			continue
		}
		kept = append(kept, child)
	}
	if !placed {
		kept = append(kept, run)
	}
	p.el.children = kept
}

type Cell struct {
	Paragraphs []*Paragraph
}

// Text joins the cell paragraphs with newlines.
func (c *Cell) Text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

type Row struct {
	Cells []*Cell
}

type Table struct {
	Rows []*Row
}

// Document exposes body paragraphs and body tables in document order.
type Document struct {
	Paragraphs []*Paragraph
	Tables     []*Table

	parts []part
	root  *node
	body  *node
	ns    string
}

// EachParagraph visits body paragraphs, then every paragraph of every table cell.
func (d *Document) EachParagraph(fn func(p *Paragraph)) {
	for _, p := range d.Paragraphs {
		fn(p)
	}
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					fn(p)
				}
			}
		}
	}
}

// Text renders the whole document as plain text, one region per line.
func (d *Document) Text() string {
	var lines []string
	for _, p := range d.Paragraphs {
		lines = append(lines, p.Text())
	}
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				lines = append(lines, cell.Text())
			}
		}
	}
	return strings.Join(lines, "\n")
}
