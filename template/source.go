package template

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/types"
)

// ErrNotFound marks a template that does not exist; it also matches types.ErrTemplateUnavailable.
var ErrNotFound = fmt.Errorf("%w: not found", types.ErrTemplateUnavailable)

// Source resolves a template reference to a parsed document.
// A missing or unreadable template is reported as types.ErrTemplateUnavailable.
type Source interface {
	Open(ctx context.Context, ref string) (*document.Document, error)
}

// DirSource reads DOCX templates relative to Root.
type DirSource struct {
	Root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (s *DirSource) Path(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(s.Root, ref)
}

func (s *DirSource) Open(ctx context.Context, ref string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(ref)
	doc, err := document.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrTemplateUnavailable, ref, err)
	}
	return doc, nil
}

// Exists reports whether the template file is present.
func (s *DirSource) Exists(ref string) bool {
	info, err := os.Stat(s.Path(ref))
	return err == nil && !info.IsDir()
}

// MapSource serves DOCX packages held in memory. Every Open parses a fresh copy so callers
// may modify the returned document.
type MapSource map[string][]byte

func (m MapSource) Open(ctx context.Context, ref string) (*document.Document, error) {
	data, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	doc, err := document.Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrTemplateUnavailable, ref, err)
	}
	return doc, nil
}
