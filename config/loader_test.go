package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLoadDir(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "b.hcl"), `
variable "region" {
  type = string
}
`)
	writeFile(t, filepath.Join(dir, "a.vars.hcl"), `
region = "us-west-2"
`)
	writeFile(t, filepath.Join(dir, "c.md"), `# Notes

`+"```hcl"+`
locals {
  prefix = "demo"
}
`+"```"+`
`)
	writeFile(t, filepath.Join(dir, "d.hcl"), "\n\n")
	writeFile(t, filepath.Join(dir, ".hidden", "e.hcl"), `
variable "ignored" {}
`)
	writeFile(t, filepath.Join(dir, "sub", "f.hcl"), `
output "region" {
  value = var.region
}
`)

	l := &Loader{}
	files, diags := l.LoadDir(context.Background(), dir)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(files), 3; got != want {
		t.Fatalf("got %d parsed files, want %d", got, want)
	}

	// Path order: b.hcl, then the fence in c.md, then sub/f.hcl. Value
	// files and hidden directories stay out, empty files are dropped.
	blockTypes := make([]string, len(files))
	for i, f := range files {
		body := f.Body.(*hclsyntax.Body)
		if len(body.Blocks) == 0 {
			t.Fatalf("file %d has no blocks", i)
		}
		blockTypes[i] = body.Blocks[0].Type
	}
	want := []string{"variable", "locals", "output"}
	for i := range want {
		if blockTypes[i] != want[i] {
			t.Errorf("file %d leads with block %q, want %q", i, blockTypes[i], want[i])
		}
	}
}

func TestLoaderLoadDirConcurrencyLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.hcl", "b.hcl", "c.hcl", "d.hcl"} {
		writeFile(t, filepath.Join(dir, name), `
locals {
  from = "`+name+`"
}
`)
	}

	l := &Loader{Limit: 1}
	files, diags := l.LoadDir(context.Background(), dir)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(files), 4; got != want {
		t.Fatalf("got %d files, want %d", got, want)
	}
}

func TestLoaderWriteDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	writeFile(t, path, `variable "region" {
  type = string
}
`)

	l := &Loader{}
	if _, diags := l.LoadDir(context.Background(), dir); diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}

	var buf bytes.Buffer
	l.WriteDiagnostics(&buf, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Something is off",
		Detail:   "An example diagnostic pointing into the file.",
		Subject: &hcl.Range{
			Filename: path,
			Start:    hcl.Pos{Line: 2, Column: 3, Byte: 22},
			End:      hcl.Pos{Line: 2, Column: 7, Byte: 26},
		},
	}})

	out := buf.String()
	if !strings.Contains(out, "Something is off") {
		t.Errorf("output missing summary:\n%s", out)
	}
	if !strings.Contains(out, "main.hcl") {
		t.Errorf("output missing filename:\n%s", out)
	}
	if !strings.Contains(out, "type = string") {
		t.Errorf("output missing source snippet:\n%s", out)
	}
}
