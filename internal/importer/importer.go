// Package importer reads inventory batch exports dropped into a project's
// import directory.
package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ponmo-books/ponmo/internal/accounting"
)

const (
	// Dir is the project subdirectory scanned for exports.
	Dir = "import"
	// ProcessedDir receives files once every batch in them is booked.
	ProcessedDir = "import/processed"
)

// Parser turns one export file into purchased batches.
type Parser interface {
	Parse(r io.Reader) ([]accounting.Batch, error)
	Format() string
}

// Registry maps format names to parsers. Lookups ignore case.
type Registry struct {
	byFormat map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byFormat: map[string]Parser{}}
}

// DefaultRegistry knows every built-in export format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BatchParser{})
	return r
}

// Register panics if the format is already taken.
func (r *Registry) Register(p Parser) {
	name := strings.ToLower(p.Format())
	if _, dup := r.byFormat[name]; dup {
		panic("importer: format registered twice: " + name)
	}
	r.byFormat[name] = p
}

// Get returns nil for an unknown format.
func (r *Registry) Get(format string) Parser {
	return r.byFormat[strings.ToLower(format)]
}

// Formats returns the registered names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.byFormat))
	for name := range r.byFormat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export is a CSV file waiting in the import directory.
type Export struct {
	Name string
	Path string
	Size int64
}

// Scan lists <root>/import/*.csv by file name so batches are booked in a
// stable order. A missing directory yields no exports.
func Scan(root string) ([]Export, error) {
	dir := filepath.Join(root, Dir)
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var out []Export
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.EqualFold(filepath.Ext(de.Name()), ".csv") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		out = append(out, Export{Name: de.Name(), Path: filepath.Join(dir, de.Name()), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ParseFile opens an export and runs p over it.
func ParseFile(p Parser, path string) ([]accounting.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	batches, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return batches, nil
}

// MarkProcessed moves an export into import/processed/. A file of the same
// name already there is never overwritten; the moved file gets a numeric suffix.
func MarkProcessed(root, name string) (string, error) {
	dst := filepath.Join(root, ProcessedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}

	target := filepath.Join(dst, name)
	ext := filepath.Ext(name)
	for n := 1; ; n++ {
		if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
			break
		}
		target = filepath.Join(dst, fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), n, ext))
	}

	if err := os.Rename(filepath.Join(root, Dir, name), target); err != nil {
		return "", fmt.Errorf("moving %s: %w", name, err)
	}
	return target, nil
}
