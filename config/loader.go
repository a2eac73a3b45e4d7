package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// defaultParallelism bounds concurrent file reads when the loader's Limit
// is unset.
const defaultParallelism = 8

// A Loader loads configuration files from a directory tree.
//
// The zero value is ready to load files.
type Loader struct {
	// Limit bounds how many files are read and parsed concurrently.
	// Zero means a small default.
	Limit int

	mu      sync.Mutex
	sources map[string][]byte
}

// LoadDir collects and parses all configuration under root, traversing into
// subdirectories. Hidden directories are skipped, as are variable value
// files (*.vars.hcl), which carry values rather than declarations.
//
// The returned files are ordered by path, with Markdown fences in document
// order, so downstream decoding and diagnostics are deterministic.
func (l *Loader) LoadDir(ctx context.Context, root string) ([]*hcl.File, hcl.Diagnostics) {
	paths, diags := l.collect(root)
	if diags.HasErrors() {
		return nil, diags
	}

	parsed := make([][]*hcl.File, len(paths))
	perFile := make([]hcl.Diagnostics, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parsed[i], perFile[i] = l.loadFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diagErr(err)
	}

	var files []*hcl.File
	for i := range paths {
		diags = append(diags, perFile[i]...)
		files = append(files, parsed[i]...)
	}
	return files, diags
}

// collect walks root and returns the candidate file paths in sorted order.
func (l *Loader) collect(root string) ([]string, hcl.Diagnostics) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isConfigFile(path) || isDocFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, diagErr(err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) limit() int {
	if l.Limit > 0 {
		return l.Limit
	}
	return defaultParallelism
}

func isConfigFile(path string) bool {
	if strings.HasSuffix(path, ".vars.hcl") {
		return false
	}
	return filepath.Ext(path) == ".hcl"
}

func isDocFile(path string) bool {
	switch filepath.Ext(path) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// loadFile reads and parses a single file. A Markdown document may yield
// several parsed units, one per fenced configuration block.
func (l *Loader) loadFile(path string) ([]*hcl.File, hcl.Diagnostics) {
	src, err := l.ReadFile(path)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to read configuration file",
			Detail:   fmt.Sprintf("The file %s could not be read: %s.", path, err),
		}}
	}
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, nil
	}

	if isDocFile(path) {
		return extractFences(src, path)
	}

	f, diags := hclsyntax.ParseConfig(src, path, hcl.InitialPos)
	if f == nil || f.Body == nil {
		return nil, diags
	}
	if body, ok := f.Body.(*hclsyntax.Body); ok && len(body.Blocks) == 0 && len(body.Attributes) == 0 {
		return nil, diags
	}
	return []*hcl.File{f}, diags
}

// ReadFile reads a file and retains its bytes so later diagnostics can
// quote it. Value files loaded outside LoadDir go through here too.
func (l *Loader) ReadFile(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	l.mu.Lock()
	if l.sources == nil {
		l.sources = make(map[string][]byte)
	}
	l.sources[path] = src
	l.mu.Unlock()
	return src, nil
}

// WriteDiagnostics writes diagnostics as a human readable string to w. It
// should only be used for diagnostics that originate from files loaded by
// this Loader.
//
// If a TTY is attached, the output will be colorized and wrap at the
// terminal width. Otherwise, wrap will occur at 78 characters and output
// won't contain ANSI escape characters.
func (l *Loader) WriteDiagnostics(w io.Writer, diags hcl.Diagnostics) {
	l.mu.Lock()
	files := make(map[string]*hcl.File, len(l.sources))
	for name, src := range l.sources {
		files[name] = &hcl.File{Bytes: src}
	}
	l.mu.Unlock()

	cols, _, err := term.GetSize(0)
	if err != nil {
		cols = 78
	}
	color := term.IsTerminal(0)
	wr := hcl.NewDiagnosticTextWriter(w, files, uint(cols), color)
	if err := wr.WriteDiagnostics(diags); err != nil {
		fmt.Fprintln(w, err)
	}
}

// diagErr converts a native error to diagnostics.
func diagErr(err error) hcl.Diagnostics {
	return hcl.Diagnostics{{Severity: hcl.DiagError, Summary: err.Error()}}
}
