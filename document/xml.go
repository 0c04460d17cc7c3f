package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

type nodeKind int

const (
	elementNode nodeKind = iota
	textNode
	rawNode
)

// node is a prefix-preserving XML tree. encoding/xml re-encodes namespaces with generated
// prefixes, which Word rejects, so the tree is read with RawToken and written by hand.
type node struct {
	kind     nodeKind
	name     xml.Name
	attr     []xml.Attr
	children []*node
	text     string
}

func newElement(prefix, local string, attr ...xml.Attr) *node {
	return &node{kind: elementNode, name: xml.Name{Space: prefix, Local: local}, attr: attr}
}

func newText(text string) *node {
	return &node{kind: textNode, text: text}
}

func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &node{kind: elementNode}
	stack := []*node{root}
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := &node{kind: elementNode, name: t.Name, attr: append([]xml.Attr(nil), t.Attr...)}
			top.children = append(top.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("decode xml: unexpected end element %s", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.children = append(top.children, newText(string(t)))
		case xml.Comment:
			top.children = append(top.children, &node{kind: rawNode, text: "<!--" + string(t) + "-->"})
		case xml.ProcInst:
			top.children = append(top.children, &node{kind: rawNode, text: "<?" + t.Target + " " + string(t.Inst) + "?>"})
		case xml.Directive:
			top.children = append(top.children, &node{kind: rawNode, text: "<!" + string(t) + ">"})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("decode xml: unclosed element %s", qualified(stack[len(stack)-1].name))
	}
	return root, nil
}

func (n *node) bytes() []byte {
	var buf bytes.Buffer
	for _, child := range n.children {
		child.write(&buf)
	}
	return buf.Bytes()
}

func (n *node) write(buf *bytes.Buffer) {
	switch n.kind {
	case textNode:
		_ = xml.EscapeText(buf, []byte(n.text))
	case rawNode:
		buf.WriteString(n.text)
	case elementNode:
		buf.WriteByte('<')
		buf.WriteString(qualified(n.name))
		for _, a := range n.attr {
			buf.WriteByte(' ')
			buf.WriteString(qualified(a.Name))
			buf.WriteString(`="`)
			_ = xml.EscapeText(buf, []byte(a.Value))
			buf.WriteByte('"')
		}
		if len(n.children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, child := range n.children {
			child.write(buf)
		}
		buf.WriteString("</")
		buf.WriteString(qualified(n.name))
		buf.WriteByte('>')
	}
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func (n *node) attrValue(space, local string) (string, bool) {
	for _, a := range n.attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// textContent concatenates all character data below n.
func (n *node) textContent() string {
	if n.kind == textNode {
		return n.text
	}
	var buf bytes.Buffer
	for _, child := range n.children {
		buf.WriteString(child.textContent())
	}
	return buf.String()
}
