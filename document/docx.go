package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const mainPart = "word/document.xml"

var ErrMalformed = errors.New("malformed docx")

type part struct {
	name string
	data []byte
}

// Open reads a DOCX package.
func Open(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	doc := &Document{}
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrMalformed, f.Name, err)
		}
		doc.parts = append(doc.parts, part{name: f.Name, data: data})
	}
	var body []byte
	for _, p := range doc.parts {
		if strings.EqualFold(p.name, mainPart) {
			body = p.data
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, mainPart)
	}
	if err := doc.load(body); err != nil {
		return nil, err
	}
	return doc, nil
}

func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(bytes.NewReader(data), int64(len(data)))
}

func (d *Document) load(body []byte) error {
	tree, err := parseTree(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := documentElement(tree)
	if root == nil {
		return fmt.Errorf("%w: empty %s", ErrMalformed, mainPart)
	}
	d.root = tree
	d.ns = wordPrefix(root)
	d.body = firstChild(root, d.ns, "body")
	if d.body == nil {
		return fmt.Errorf("%w: document has no body", ErrMalformed)
	}
	d.index()
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Save writes the package with the current body; other parts are copied unchanged.
func (d *Document) Save(w io.Writer) error {
	if d.root == nil {
		return fmt.Errorf("%w: document not loaded", ErrMalformed)
	}
	zw := zip.NewWriter(w)
	written := false
	for _, p := range d.parts {
		data := p.data
		if strings.EqualFold(p.name, mainPart) {
			data = d.root.bytes()
			written = true
		}
		if err := writeZipFile(zw, p.name, data); err != nil {
			return err
		}
	}
	if !written {
		if err := writeZipFile(zw, mainPart, d.root.bytes()); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (d *Document) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// New returns an empty document with a Title style available for headings.
func New() *Document {
	doc, err := Parse([]byte(emptyDocumentXML))
	if err != nil {
		panic(fmt.Sprintf("document: built-in template is invalid: %v", err))
	}
	return doc
}

// Parse builds a document from a bare word/document.xml, adding the minimal package parts.
func Parse(documentXML []byte) (*Document, error) {
	doc := &Document{
		parts: []part{
			{name: "[Content_Types].xml", data: []byte(contentTypesXML)},
			{name: "_rels/.rels", data: []byte(packageRelsXML)},
			{name: mainPart, data: documentXML},
			{name: "word/_rels/document.xml.rels", data: []byte(documentRelsXML)},
			{name: "word/styles.xml", data: []byte(stylesXML)},
		},
	}
	if err := doc.load(documentXML); err != nil {
		return nil, err
	}
	return doc, nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:rPr><w:sz w:val="24"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr><w:b/><w:sz w:val="44"/></w:rPr></w:style></w:styles>`

const emptyDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="850" w:bottom="1134" w:left="1701" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr></w:body></w:document>`

// Bytes returns the saved DOCX package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
