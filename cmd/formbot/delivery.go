package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tbxark/formdoc/agent"
	"github.com/tbxark/formdoc/filler"
)

// fileDelivery copies documents into a per-session folder under dir.
type fileDelivery struct {
	dir string
	out io.Writer
}

func newFileDelivery(dir string, out io.Writer) *fileDelivery {
	return &fileDelivery{dir: dir, out: out}
}

func (d *fileDelivery) Deliver(ctx context.Context, batch *filler.Batch) error {
	session, _ := agent.StateKeyFromContext(ctx)
	if session == "" {
		session = "default"
	}
	target := filepath.Join(d.dir, filler.SanitizeFileName(session))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, file := range batch.Files {
		path := freePath(filepath.Join(target, file.Name))
		if err := copyFile(file.Path, path); err != nil {
			return fmt.Errorf("failed to deliver %s: %w", file.Template, err)
		}
		slog.Debug("Delivered document", "template", file.Template, "path", path)
		fmt.Fprintf(d.out, "✅ %s -> %s\n", file.Template, path)
	}
	return nil
}

// freePath appends _2, _3, ... before the extension until the path is unused.
func freePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
