// Package eval evaluates a decoded module: locals in dependency order,
// resources expanded by count or for_each, outputs last in line.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"go.uber.org/zap"

	"github.com/decl/decl/graph"
	"github.com/decl/decl/lang"
)

// An Evaluator evaluates modules. The zero value is ready to use and logs
// nothing.
type Evaluator struct {
	// Log receives debug information about evaluation progress.
	Log *zap.Logger

	funcs map[string]function.Function
}

// A Result holds every value produced by one evaluation, keyed the same
// way the configuration refers to them.
type Result struct {
	Variables map[string]cty.Value
	Locals    map[string]cty.Value
	Resources map[string]cty.Value
	Outputs   map[string]OutputValue
}

// An OutputValue pairs an output's value with its declared sensitivity.
// The flag forces redaction even when the value itself carries no
// sensitive parts.
type OutputValue struct {
	Value     cty.Value
	Sensitive bool
}

func (e *Evaluator) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Evaluator) functions() map[string]function.Function {
	if e.funcs == nil {
		e.funcs = lang.Functions()
	}
	return e.funcs
}

// Graph builds the reference graph for the module, checking every
// reference against the declared addresses.
func (e *Evaluator) Graph(mod *lang.Module) (*graph.Graph, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	g := graph.New()

	for _, v := range mod.Variables {
		g.AddDecl(v.Addr())
	}
	for _, l := range mod.Locals {
		g.AddDecl(l.Addr())
	}
	for _, r := range mod.Resources {
		g.AddDecl(r.Addr())
	}
	for _, o := range mod.Outputs {
		g.AddDecl(o.Addr())
	}

	addRefs := func(referrer lang.Addr, refs []*lang.Reference) {
		for _, ref := range refs {
			if refDiags := checkRef(mod, ref); refDiags.HasErrors() {
				diags = append(diags, refDiags...)
				continue
			}
			if referrer == ref.Subject {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Self-referential declaration",
					Detail:   fmt.Sprintf("%s refers to itself. A declaration cannot depend on its own value.", referrer),
					Subject:  ref.SourceRange.Ptr(),
				})
				continue
			}
			if err := g.AddReference(referrer, ref.Subject, ref); err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid reference",
					Detail:   err.Error(),
					Subject:  ref.SourceRange.Ptr(),
				})
			}
		}
	}

	for _, name := range sortedNames(mod.Locals) {
		l := mod.Locals[name]
		refs, refDiags := lang.References(l.Expr)
		diags = append(diags, refDiags...)
		addRefs(l.Addr(), refs)
	}
	for _, key := range sortedNames(mod.Resources) {
		r := mod.Resources[key]
		refs, refDiags := resourceReferences(r)
		diags = append(diags, refDiags...)
		addRefs(r.Addr(), refs)
	}
	for _, name := range sortedNames(mod.Outputs) {
		o := mod.Outputs[name]
		refs, refDiags := lang.References(o.Expr)
		diags = append(diags, refDiags...)
		addRefs(o.Addr(), refs)
	}

	return g, diags
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Order returns the evaluation order for the module's graph, reporting any
// reference cycles as diagnostics.
func (e *Evaluator) Order(g *graph.Graph, mod *lang.Module) ([]lang.Addr, hcl.Diagnostics) {
	order, cycles := g.TopoOrder()
	if len(cycles) == 0 {
		return order, nil
	}

	var diags hcl.Diagnostics
	for _, cycle := range cycles {
		names := make([]string, len(cycle))
		for i, addr := range cycle {
			names[i] = addr.String()
		}
		subject := declRange(mod, cycle[0])
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Reference cycle",
			Detail:   fmt.Sprintf("The following declarations refer to each other in a cycle: %s. Break the cycle by removing one of the references.", strings.Join(names, ", ")),
			Subject:  subject.Ptr(),
		})
	}
	return nil, diags
}

// Eval evaluates the module using the given resolved variable values.
//
// Values must already be conformed, validated and marked for sensitivity.
// Evaluation itself is pure: the same module and values produce the same
// result every time.
func (e *Evaluator) Eval(mod *lang.Module, vars map[string]cty.Value) (*Result, hcl.Diagnostics) {
	g, diags := e.Graph(mod)
	if diags.HasErrors() {
		return nil, diags
	}

	order, orderDiags := e.Order(g, mod)
	diags = append(diags, orderDiags...)
	if orderDiags.HasErrors() {
		return nil, diags
	}

	res := &Result{
		Variables: make(map[string]cty.Value, len(mod.Variables)),
		Locals:    make(map[string]cty.Value, len(mod.Locals)),
		Resources: make(map[string]cty.Value, len(mod.Resources)),
		Outputs:   make(map[string]OutputValue, len(mod.Outputs)),
	}
	resourcesByType := make(map[string]map[string]cty.Value)

	scope := func() *hcl.EvalContext {
		variables := map[string]cty.Value{
			"var":   cty.ObjectVal(res.Variables),
			"local": cty.ObjectVal(res.Locals),
		}
		for typ, named := range resourcesByType {
			variables[typ] = cty.ObjectVal(named)
		}
		return &hcl.EvalContext{
			Variables: variables,
			Functions: e.functions(),
		}
	}

	for _, addr := range order {
		switch addr.Kind {
		case lang.AddrVariable:
			val, ok := vars[addr.Name]
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Missing value for variable",
					Detail:   fmt.Sprintf("No resolved value for variable %q was provided to evaluation.", addr.Name),
					Subject:  declRange(mod, addr).Ptr(),
				})
				val = cty.DynamicVal
			}
			res.Variables[addr.Name] = val

		case lang.AddrLocal:
			l := mod.Locals[addr.Name]
			val, valDiags := l.Expr.Value(scope())
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				val = cty.DynamicVal
			}
			e.log().Debug("evaluated local", zap.String("name", addr.Name))
			res.Locals[addr.Name] = val

		case lang.AddrResource:
			r := mod.Resources[addr.String()]
			val, valDiags := e.expandResource(r, scope())
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				val = cty.DynamicVal
			}
			res.Resources[addr.String()] = val
			named, ok := resourcesByType[addr.Type]
			if !ok {
				named = make(map[string]cty.Value)
				resourcesByType[addr.Type] = named
			}
			named[addr.Name] = val

		case lang.AddrOutput:
			o := mod.Outputs[addr.Name]
			val, valDiags := o.Expr.Value(scope())
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				val = cty.DynamicVal
			}
			res.Outputs[addr.Name] = OutputValue{
				Value:     val,
				Sensitive: o.Sensitive,
			}
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return res, diags
}

func declRange(mod *lang.Module, addr lang.Addr) hcl.Range {
	switch addr.Kind {
	case lang.AddrVariable:
		if v, ok := mod.Variables[addr.Name]; ok {
			return v.DeclRange
		}
	case lang.AddrLocal:
		if l, ok := mod.Locals[addr.Name]; ok {
			return l.DeclRange
		}
	case lang.AddrResource:
		if r, ok := mod.Resources[addr.String()]; ok {
			return r.DeclRange
		}
	case lang.AddrOutput:
		if o, ok := mod.Outputs[addr.Name]; ok {
			return o.DeclRange
		}
	}
	return hcl.Range{}
}
