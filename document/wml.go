package document

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func isElement(n *node, ns, local string) bool {
	return n != nil && n.kind == elementNode && n.name.Space == ns && n.name.Local == local
}

func childElements(n *node, ns, local string) []*node {
	var out []*node
	for _, child := range n.children {
		if isElement(child, ns, local) {
			out = append(out, child)
		}
	}
	return out
}

func firstChild(n *node, ns, local string) *node {
	for _, child := range n.children {
		if isElement(child, ns, local) {
			return child
		}
	}
	return nil
}

// wordPrefix finds the prefix bound to the WordprocessingML namespace on the root element.
func wordPrefix(root *node) string {
	if root == nil {
		return "w"
	}
	for _, a := range root.attr {
		if a.Name.Space == "xmlns" && a.Value == wordNamespace {
			return a.Name.Local
		}
	}
	return "w"
}

func documentElement(tree *node) *node {
	for _, child := range tree.children {
		if child.kind == elementNode {
			return child
		}
	}
	return nil
}

func (d *Document) index() {
	d.Paragraphs = nil
	d.Tables = nil
	if d.body == nil {
		return
	}
	for _, child := range d.body.children {
		switch {
		case isElement(child, d.ns, "p"):
			d.Paragraphs = append(d.Paragraphs, readParagraph(child, d.ns))
		case isElement(child, d.ns, "tbl"):
			d.Tables = append(d.Tables, readTable(child, d.ns))
		}
	}
}

func readTable(el *node, ns string) *Table {
	t := &Table{}
	for _, tr := range childElements(el, ns, "tr") {
		row := &Row{}
		for _, tc := range childElements(tr, ns, "tc") {
			cell := &Cell{}
			for _, p := range childElements(tc, ns, "p") {
				cell.Paragraphs = append(cell.Paragraphs, readParagraph(p, ns))
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func readParagraph(el *node, ns string) *Paragraph {
	p := &Paragraph{el: el, ns: ns}
	if ppr := firstChild(el, ns, "pPr"); ppr != nil {
		if style := firstChild(ppr, ns, "pStyle"); style != nil {
			p.Style, _ = style.attrValue(ns, "val")
		}
	}
	eachRun(el, ns, func(r *node) {
		p.Runs = append(p.Runs, readRun(r, ns))
	})
	return p
}

// inlineWrappers hold runs inside a paragraph; their runs read in place.
var inlineWrappers = []string{"hyperlink", "fldSimple", "ins", "smartTag", "customXml", "sdt"}

func isInlineWrapper(n *node, ns string) bool {
	for _, local := range inlineWrappers {
		if isElement(n, ns, local) {
			return true
		}
	}
	return false
}

// eachRun visits the runs of a paragraph in reading order, descending into inline wrappers.
func eachRun(el *node, ns string, fn func(r *node)) {
	for _, child := range el.children {
		switch {
		case isElement(child, ns, "r"):
			fn(child)
		case isElement(child, ns, "sdt"):
			if content := firstChild(child, ns, "sdtContent"); content != nil {
				eachRun(content, ns, fn)
			}
		case isInlineWrapper(child, ns):
			eachRun(child, ns, fn)
		}
	}
}

func readRun(el *node, ns string) Run {
	var run Run
	var sb strings.Builder
	for _, child := range el.children {
		switch {
		case isElement(child, ns, "rPr"):
			run.Format = readFormat(child, ns)
		case isElement(child, ns, "t"):
			sb.WriteString(child.textContent())
		case isElement(child, ns, "tab"):
			sb.WriteString("\t")
		case isElement(child, ns, "br"), isElement(child, ns, "cr"):
			sb.WriteString("\n")
		}
	}
	run.Text = sb.String()
	return run
}

// readFormat ignores malformed attribute values; a lost font size is not an error.
func readFormat(rpr *node, ns string) Format {
	var f Format
	for _, child := range rpr.children {
		switch {
		case isElement(child, ns, "b"):
			f.Bold = toggle(child, ns)
		case isElement(child, ns, "i"):
			f.Italic = toggle(child, ns)
		case isElement(child, ns, "u"):
			f.Underline = "single"
			if v, ok := child.attrValue(ns, "val"); ok && v != "" {
				f.Underline = v
			}
		case isElement(child, ns, "rFonts"):
			if name, ok := child.attrValue(ns, "ascii"); ok {
				f.FontName = name
			} else if name, ok := child.attrValue(ns, "hAnsi"); ok {
				f.FontName = name
			}
		case isElement(child, ns, "sz"):
			if v, ok := child.attrValue(ns, "val"); ok {
				if size, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && size > 0 {
					f.FontSize = size
				}
			}
		}
	}
	return f
}

func toggle(el *node, ns string) *bool {
	v, ok := el.attrValue(ns, "val")
	on := true
	if ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "off":
			on = false
		}
	}
	return &on
}

func wattr(ns, local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: ns, Local: local}, Value: value}
}

func buildFormat(ns string, f Format) *node {
	if f.IsZero() {
		return nil
	}
	rpr := newElement(ns, "rPr")
	if f.FontName != "" {
		rpr.children = append(rpr.children, newElement(ns, "rFonts",
			wattr(ns, "ascii", f.FontName),
			wattr(ns, "hAnsi", f.FontName),
			wattr(ns, "cs", f.FontName),
		))
	}
	if f.Bold != nil {
		rpr.children = append(rpr.children, newElement(ns, "b", wattr(ns, "val", strconv.FormatBool(*f.Bold))))
	}
	if f.Italic != nil {
		rpr.children = append(rpr.children, newElement(ns, "i", wattr(ns, "val", strconv.FormatBool(*f.Italic))))
	}
	if f.FontSize > 0 {
		size := strconv.Itoa(f.FontSize)
		rpr.children = append(rpr.children,
			newElement(ns, "sz", wattr(ns, "val", size)),
			newElement(ns, "szCs", wattr(ns, "val", size)),
		)
	}
	if f.Underline != "" {
		rpr.children = append(rpr.children, newElement(ns, "u", wattr(ns, "val", f.Underline)))
	}
	return rpr
}

// buildRun writes tabs and newlines as w:tab and w:br, the way Word stores them.
func buildRun(ns, text string, f Format) *node {
	r := newElement(ns, "r")
	if rpr := buildFormat(ns, f); rpr != nil {
		r.children = append(r.children, rpr)
	}
	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		t := newElement(ns, "t", xml.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
		t.children = []*node{newText(seg.String())}
		r.children = append(r.children, t)
		seg.Reset()
	}
	for _, ch := range text {
		switch ch {
		case '\n':
			flush()
			r.children = append(r.children, newElement(ns, "br"))
		case '\t':
			flush()
			r.children = append(r.children, newElement(ns, "tab"))
		default:
			seg.WriteRune(ch)
		}
	}
	flush()
	return r
}

// AddParagraph appends a body paragraph, keeping the section properties last.
func (d *Document) AddParagraph(text, style string) *Paragraph {
	el := newElement(d.ns, "p")
	if style != "" {
		ppr := newElement(d.ns, "pPr")
		ppr.children = []*node{newElement(d.ns, "pStyle", wattr(d.ns, "val", style))}
		el.children = append(el.children, ppr)
	}
	p := &Paragraph{Style: style, el: el, ns: d.ns}
	p.SetText(text, Format{})

	children := d.body.children
	pos := len(children)
	if pos > 0 && isElement(children[pos-1], d.ns, "sectPr") {
		pos--
	}
	d.body.children = append(children[:pos], append([]*node{el}, children[pos:]...)...)
	d.Paragraphs = append(d.Paragraphs, p)
	return p
}

func (d *Document) AddHeading(text string) *Paragraph {
	return d.AddParagraph(text, "Title")
}
