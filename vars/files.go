package vars

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	hcljson "github.com/hashicorp/hcl/v2/json"
	"github.com/zclconf/go-cty/cty"
)

// fileValue is a single NAME = VALUE entry read from a variable value file.
type fileValue struct {
	value cty.Value
	rng   hcl.Range
}

// autoFiles lists the variable value files that load without being asked
// for: decl.vars.hcl and decl.vars.json first, then *.auto.vars.hcl and
// *.auto.vars.json in lexical order.
func autoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var auto []string
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch name {
		case "decl.vars.hcl", "decl.vars.json":
			files = append(files, filepath.Join(dir, name))
		default:
			if strings.HasSuffix(name, ".auto.vars.hcl") || strings.HasSuffix(name, ".auto.vars.json") {
				auto = append(auto, filepath.Join(dir, name))
			}
		}
	}
	sort.Strings(files)
	sort.Strings(auto)
	return append(files, auto...), nil
}

// parseVarsFile reads one value file into name/value pairs. Values must be
// literals; the file format carries data, not expressions.
func (r *Resolver) parseVarsFile(path string) (map[string]fileValue, hcl.Diagnostics) {
	src, err := r.readFile(path)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to read variable file",
			Detail:   fmt.Sprintf("The file %s could not be read: %s.", path, err),
		}}
	}

	var f *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(path, ".json") {
		f, diags = hcljson.Parse(src, path)
	} else {
		f, diags = hclsyntax.ParseConfig(src, path, hcl.InitialPos)
	}
	if f == nil || f.Body == nil || diags.HasErrors() {
		return nil, diags
	}

	if body, ok := f.Body.(*hclsyntax.Body); ok {
		for _, block := range body.Blocks {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Blocks are not allowed in a variable file",
				Detail:   "A variable file assigns values with NAME = VALUE entries only.",
				Subject:  block.TypeRange.Ptr(),
			})
		}
		if diags.HasErrors() {
			return nil, diags
		}
	}

	attrs, attrDiags := f.Body.JustAttributes()
	diags = append(diags, attrDiags...)
	if attrDiags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]fileValue, len(attrs))
	for _, name := range names {
		attr := attrs[name]
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		values[name] = fileValue{value: val, rng: attr.Range}
	}
	return values, diags
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	if r.Loader != nil {
		return r.Loader.ReadFile(path)
	}
	return os.ReadFile(path)
}
