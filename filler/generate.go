package filler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tbxark/formdoc/catalog"
	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/template"
	"github.com/tbxark/formdoc/types"
)

const timestampLayout = "20060102_150405"

// File is one generated document.
type File struct {
	Template string `json:"template"`
	Path     string `json:"path"`
	// Name is the file name offered to the recipient.
	Name string `json:"name"`
}

// Batch owns a temporary directory holding the documents of one generation call.
type Batch struct {
	ID    string `json:"id"`
	Dir   string `json:"dir"`
	Files []File `json:"files"`

	once sync.Once
	err  error
}

// Cleanup removes the batch directory. Later calls return the first result.
func (b *Batch) Cleanup() error {
	if b == nil {
		return nil
	}
	b.once.Do(func() {
		b.err = os.RemoveAll(b.Dir)
		slog.Debug("Removed generated documents", "batch", b.ID, "dir", b.Dir, "error", b.err)
	})
	return b.err
}

type Generator struct {
	catalog  *catalog.Catalog
	source   template.Source
	tempRoot string
	now      func() time.Time
	save     func(doc *document.Document, path string) error
}

type GeneratorOption func(*Generator)

// WithTempRoot sets the parent of batch directories; the default is os.TempDir().
func WithTempRoot(dir string) GeneratorOption {
	return func(g *Generator) {
		g.tempRoot = dir
	}
}

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(c *catalog.Catalog, source template.Source, opts ...GeneratorOption) *Generator {
	g := &Generator{
		catalog: c,
		source:  source,
		now:     time.Now,
		save: func(doc *document.Document, path string) error {
			return doc.SaveFile(path)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate fills every selected template into a fresh directory. It is all-or-nothing: on
// any failure the directory is removed and an error wrapping types.ErrGenerationFailure is
// returned. Unusable templates are not failures; they degrade to a fallback document.
func (g *Generator) Generate(ctx context.Context, category string, selected []string, values types.Values) (*Batch, error) {
	cat, err := g.catalog.Category(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrGenerationFailure, err)
	}
	templates := make([]catalog.Template, 0, len(selected))
	for _, name := range selected {
		tpl, ok := cat.Template(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q", types.ErrGenerationFailure, types.ErrUnknownTemplate, name)
		}
		templates = append(templates, tpl)
	}

	root := g.tempRoot
	if root == "" {
		root = os.TempDir()
	}
	batch := &Batch{ID: uuid.NewString()}
	batch.Dir = filepath.Join(root, "formdoc-"+batch.ID)
	if err := os.MkdirAll(batch.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %w", types.ErrGenerationFailure, err)
	}

	if err := g.fillAll(ctx, batch, templates, values); err != nil {
		if cErr := batch.Cleanup(); cErr != nil {
			slog.Error("Failed to remove temp dir", "dir", batch.Dir, "error", cErr)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrGenerationFailure, err)
	}
	slog.Info("Generated documents", "batch", batch.ID, "category", category, "files", len(batch.Files))
	return batch, nil
}

func (g *Generator) fillAll(ctx context.Context, batch *Batch, templates []catalog.Template, values types.Values) error {
	stamp := g.now().Format(timestampLayout)
	paths := map[string]struct{}{}
	names := map[string]struct{}{}
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, tErr := FillOrFallback(ctx, g.source, tpl.Name, tpl.File, values)
		if tErr != nil {
			slog.Warn("Template replaced by fallback document", "template", tpl.Name, "error", tErr)
		}
		base := unique(SanitizeFileName(tpl.Name)+"_"+stamp, paths)
		path := filepath.Join(batch.Dir, base+".docx")
		if err := g.save(doc, path); err != nil {
			return fmt.Errorf("save %s: %w", tpl.Name, err)
		}
		batch.Files = append(batch.Files, File{
			Template: tpl.Name,
			Path:     path,
			Name:     unique(SanitizeDisplayName(tpl.Name), names) + ".docx",
		})
	}
	if len(batch.Files) == 0 {
		return types.ErrEmptySelection
	}
	return nil
}

func unique(base string, used map[string]struct{}) string {
	name := base
	for i := 2; ; i++ {
		if _, ok := used[name]; !ok {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	used[name] = struct{}{}
	return name
}

// SanitizeDisplayName keeps letters, digits, '_', '-' and whitespace of any script.
func SanitizeDisplayName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsSpace(r) || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "document"
	}
	return out
}

// SanitizeFileName is SanitizeDisplayName with whitespace turned into underscores.
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, SanitizeDisplayName(name))
}
