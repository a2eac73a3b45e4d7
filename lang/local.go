package lang

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// A Local is a named expression computed once per evaluation.
//
// Locals may refer to variables, resources and other locals. The reference
// graph decides their evaluation order.
type Local struct {
	Name      string
	Expr      hcl.Expression
	DeclRange hcl.Range
}

// Addr returns the local value's address.
func (l *Local) Addr() Addr {
	return LocalAddr(l.Name)
}

// decodeLocalsBlock flattens one locals block into individual declarations.
// Merging across blocks and duplicate detection happen at the module level,
// since a module may carry any number of locals blocks.
func decodeLocalsBlock(block *hcl.Block) ([]*Local, hcl.Diagnostics) {
	attrs, diags := block.Body.JustAttributes()
	if len(attrs) == 0 {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	locals := make([]*Local, 0, len(attrs))
	for _, name := range names {
		attr := attrs[name]
		if !hclsyntax.ValidIdentifier(name) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid local value name",
				Detail:   "A local value name must be a valid identifier, starting with a letter and containing only letters, digits, underscores and dashes.",
				Subject:  attr.NameRange.Ptr(),
			})
			continue
		}
		locals = append(locals, &Local{
			Name:      name,
			Expr:      attr.Expr,
			DeclRange: attr.Range,
		})
	}
	return locals, diags
}
