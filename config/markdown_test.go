package config

import (
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2/hclsyntax"
)

func TestExtractFences(t *testing.T) {
	lines := []string{
		"# Deployment guide",         // 1
		"",                           // 2
		"```hcl",                     // 3
		`variable "region" {`,        // 4
		"  type = string",            // 5
		"}",                          // 6
		"```",                        // 7
		"",                           // 8
		"Shell steps are not config:", // 9
		"",     // 10
		"```sh", // 11
		"decl eval .", // 12
		"```", // 13
		"",    // 14
		"```terraform title=example", // 15
		"locals {",                   // 16
		`  prefix = "demo"`,          // 17
		"}",                          // 18
		"```",                        // 19
	}
	src := strings.Join(lines, "\n") + "\n"

	files, diags := extractFences([]byte(src), "guide.md")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if got, want := len(files), 2; got != want {
		t.Fatalf("got %d fences, want %d", got, want)
	}

	first := files[0].Body.(*hclsyntax.Body).Blocks[0]
	if got, want := first.Type, "variable"; got != want {
		t.Errorf("first fence block = %q, want %q", got, want)
	}
	if got, want := first.DefRange().Start.Line, 4; got != want {
		t.Errorf("first block starts at line %d, want %d (positions must point into the Markdown file)", got, want)
	}
	if got, want := first.DefRange().Filename, "guide.md"; got != want {
		t.Errorf("first block filename = %q, want %q", got, want)
	}

	second := files[1].Body.(*hclsyntax.Body).Blocks[0]
	if got, want := second.Type, "locals"; got != want {
		t.Errorf("second fence block = %q, want %q", got, want)
	}
	if got, want := second.DefRange().Start.Line, 16; got != want {
		t.Errorf("second block starts at line %d, want %d", got, want)
	}
}

func TestExtractFencesUnterminated(t *testing.T) {
	src := "# Doc\n\n```hcl\nlocals {\n  a = 1\n}\n"

	files, diags := extractFences([]byte(src), "doc.md")
	if len(files) != 0 {
		t.Errorf("got %d fences from an unterminated block, want 0", len(files))
	}
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1:\n%s", len(diags), diags)
	}
	if !strings.Contains(diags[0].Summary, "Unterminated") {
		t.Errorf("diagnostic summary = %q, want mention of an unterminated fence", diags[0].Summary)
	}
	if got, want := diags[0].Subject.Start.Line, 3; got != want {
		t.Errorf("diagnostic points at line %d, want %d", got, want)
	}
}

func TestExtractFencesEmptyAndUntagged(t *testing.T) {
	src := "```hcl\n```\n\n```\nplain fence\n```\n"

	files, diags := extractFences([]byte(src), "doc.md")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags)
	}
	if len(files) != 0 {
		t.Errorf("got %d fences, want 0", len(files))
	}
}
