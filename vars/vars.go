// Package vars resolves values for declared variables from their possible
// sources and checks them against the declarations.
//
// Sources in ascending priority: the declared default, variable files,
// process environment, command line. The highest-priority source always
// wins; two sources providing the same variable is not an error, the
// resolution is a deterministic override.
package vars

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/decl/decl/config"
	"github.com/decl/decl/ctyext"
	"github.com/decl/decl/lang"
	"github.com/decl/decl/schema"
	"github.com/decl/decl/suggest"
)

// Source identifies where a variable's winning value came from.
type Source int

// Sources, in ascending priority.
const (
	SourceDefault Source = iota
	SourceFile
	SourceEnv
	SourceCLI
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	case SourceCLI:
		return "cli"
	default:
		return "unknown"
	}
}

// A Resolved is one variable's final value: conformed to the declared
// type, validated and marked for sensitivity.
type Resolved struct {
	Variable   *lang.Variable
	Value      cty.Value
	Source     Source
	SourceName string
}

// Options selects the extra inputs for one resolution.
type Options struct {
	// Dir is the directory searched for automatic variable files.
	// Empty disables automatic files.
	Dir string

	// Files are explicit variable files, highest last.
	Files []string

	// CLI are raw NAME=VALUE assignments, highest last.
	CLI []string
}

// A Resolver resolves variable values.
//
// The zero value resolves with default settings and the process
// environment.
type Resolver struct {
	// Loader, when set, reads files so their bytes are available for
	// diagnostic rendering.
	Loader *config.Loader

	// EnvPrefix is the environment variable prefix. Empty means
	// config.DefaultEnvPrefix.
	EnvPrefix string

	// Environ overrides the process environment. Each entry is KEY=VALUE.
	// Nil means os.Environ().
	Environ []string
}

// candidate is a value offered by some source before checking.
type candidate struct {
	value      cty.Value
	source     Source
	sourceName string
	rng        *hcl.Range
}

// Resolve resolves a value for every variable declared in the module.
//
// Undeclared names in variable files produce warnings; on the command line
// and in the environment they are errors, since a typo there would
// silently discard the value the caller explicitly provided.
func (r *Resolver) Resolve(mod *lang.Module, opts Options) (map[string]*Resolved, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	candidates := make(map[string]candidate)

	declared := make([]string, 0, len(mod.Variables))
	for name := range mod.Variables {
		declared = append(declared, name)
	}
	sort.Strings(declared)

	// Files, lowest level. Later files override earlier ones.
	var paths []string
	if opts.Dir != "" {
		auto, err := autoFiles(opts.Dir)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Failed to list variable files",
				Detail:   fmt.Sprintf("The directory %s could not be read: %s.", opts.Dir, err),
			})
		}
		paths = append(paths, auto...)
	}
	paths = append(paths, opts.Files...)

	for _, path := range paths {
		values, fileDiags := r.parseVarsFile(path)
		diags = append(diags, fileDiags...)
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fv := values[name]
			if _, ok := mod.Variables[name]; !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagWarning,
					Summary:  "Value for undeclared variable",
					Detail:   undeclaredDetail(name, declared),
					Subject:  fv.rng.Ptr(),
				})
				continue
			}
			candidates[name] = candidate{
				value:      fv.value,
				source:     SourceFile,
				sourceName: path,
				rng:        fv.rng.Ptr(),
			}
		}
	}

	// Environment.
	prefix := r.EnvPrefix
	if prefix == "" {
		prefix = config.DefaultEnvPrefix
	}
	for _, entry := range r.environ() {
		eq := strings.Index(entry, "=")
		if eq < 0 {
			continue
		}
		key, raw := entry[:eq], entry[eq+1:]
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := key[len(prefix):]
		if name == "" {
			continue
		}
		v, ok := mod.Variables[name]
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Environment value for undeclared variable",
				Detail:   fmt.Sprintf("The environment variable %s does not match any declared variable. %s", key, undeclaredDetail(name, declared)),
			})
			continue
		}
		candidates[name] = candidate{
			value:      parseRaw(raw, v),
			source:     SourceEnv,
			sourceName: key,
		}
	}

	// Command line, highest. Later flags override earlier ones.
	for _, assign := range opts.CLI {
		eq := strings.Index(assign, "=")
		if eq <= 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid variable assignment",
				Detail:   fmt.Sprintf("The argument %q is not in NAME=VALUE form.", assign),
			})
			continue
		}
		name, raw := assign[:eq], assign[eq+1:]
		v, ok := mod.Variables[name]
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Value for undeclared variable",
				Detail:   undeclaredDetail(name, declared),
			})
			continue
		}
		candidates[name] = candidate{
			value:      parseRaw(raw, v),
			source:     SourceCLI,
			sourceName: fmt.Sprintf("-var %s", name),
		}
	}

	// Pick, check and mark, per declared variable.
	resolved := make(map[string]*Resolved, len(mod.Variables))
	for _, name := range declared {
		v := mod.Variables[name]

		c, ok := candidates[name]
		if !ok {
			if v.Required() {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "No value for required variable",
					Detail:   fmt.Sprintf("The variable %q has no default, so a value must be supplied with -var, a variable file or the %s%s environment variable.", name, prefix, name),
					Subject:  v.DeclRange.Ptr(),
				})
				continue
			}
			c = candidate{
				value:      v.Default,
				source:     SourceDefault,
				sourceName: "default",
			}
		}

		res, valDiags := r.finish(v, c)
		diags = append(diags, valDiags...)
		if res != nil {
			resolved[name] = res
		}
	}

	return resolved, diags
}

// finish runs the declaration's checks over a chosen candidate: structural
// conformance, nullability, validation rules, then sensitivity marking.
func (r *Resolver) finish(v *lang.Variable, c candidate) (*Resolved, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	val := c.value
	if val.IsNull() && !v.Nullable && c.source != SourceDefault {
		// A null from any source falls back to the default when the
		// variable rejects nulls.
		if !v.Required() {
			val = v.Default
			c.source = SourceDefault
			c.sourceName = "default"
		} else {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Invalid value for variable %q", v.Name),
				Detail:   fmt.Sprintf("The value from %s is null, and the variable does not allow null values.", c.sourceName),
				Subject:  subjectOr(c.rng, v.DeclRange),
			}}
		}
	}

	if !val.IsNull() {
		conformed, mismatches := schema.Conform(val, v.ConstraintType())
		if len(mismatches) > 0 {
			for _, m := range mismatches {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  fmt.Sprintf("Invalid value for variable %q", v.Name),
					Detail:   fmt.Sprintf("The value from %s does not fit the declared type: %s.", c.sourceName, m),
					Subject:  subjectOr(c.rng, v.DeclRange),
				})
			}
			return nil, diags
		}
		val = conformed
	}

	if valDiags := v.Validate(val); valDiags.HasErrors() {
		return nil, append(diags, valDiags...)
	}

	if v.Sensitive {
		val = ctyext.MarkSensitive(val)
	}

	return &Resolved{
		Variable:   v,
		Value:      val,
		Source:     c.source,
		SourceName: c.sourceName,
	}, diags
}

// parseRaw interprets a raw string from the command line or environment.
//
// When the declared type is string the raw text is the value. Otherwise
// the text is parsed as an HCL expression, so lists, maps and numbers can
// be passed; if it does not parse, the raw string is used and the type
// check reports the mismatch.
func parseRaw(raw string, v *lang.Variable) cty.Value {
	if v.Type == cty.String {
		return cty.StringVal(raw)
	}
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<value for var."+v.Name+">", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	val, valDiags := expr.Value(nil)
	if valDiags.HasErrors() {
		return cty.StringVal(raw)
	}
	return val
}

// Values extracts the plain value map evaluation wants.
func Values(resolved map[string]*Resolved) map[string]cty.Value {
	values := make(map[string]cty.Value, len(resolved))
	for name, res := range resolved {
		values[name] = res.Value
	}
	return values
}

func (r *Resolver) environ() []string {
	if r.Environ != nil {
		return r.Environ
	}
	return os.Environ()
}

func undeclaredDetail(name string, declared []string) string {
	detail := fmt.Sprintf("No variable named %q is declared by the module.", name)
	if s := suggest.String(name, declared); s != "" {
		detail += fmt.Sprintf(" Did you mean %q?", s)
	}
	return detail
}

func subjectOr(rng *hcl.Range, fallback hcl.Range) *hcl.Range {
	if rng != nil {
		return rng
	}
	return fallback.Ptr()
}
