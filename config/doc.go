// Package config loads declarative configuration from disk.
//
// Configuration is collected from every .hcl file under a root directory,
// and from fenced code blocks tagged hcl, terraform or tf inside Markdown
// documents. Documentation and configuration living side by side stay
// honest this way: the examples in a README are parsed, checked and
// evaluated exactly like standalone files.
//
// The loader retains the raw bytes of every file it touches so that
// diagnostics can be rendered with source snippets pointing at the real
// file and line, including lines inside Markdown fences.
package config
