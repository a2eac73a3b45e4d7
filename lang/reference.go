package lang

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/decl/decl/suggest"
)

// A Reference is a use of one declaration from inside an expression
// belonging to another.
type Reference struct {
	Subject     Addr
	SourceRange hcl.Range
}

// References extracts all declaration references from the given expression.
//
// Traversals rooted at count and each are not references between
// declarations. They are resolved from the expansion scope of the resource
// instance under evaluation, so they are silently skipped here.
func References(expr hcl.Expression) ([]*Reference, hcl.Diagnostics) {
	var refs []*Reference
	var diags hcl.Diagnostics
	for _, traversal := range expr.Variables() {
		switch traversal.RootName() {
		case "count", "each":
			continue
		}
		ref, refDiags := ParseRef(traversal)
		diags = append(diags, refDiags...)
		if ref != nil {
			refs = append(refs, ref)
		}
	}
	return refs, diags
}

// ParseRef interprets a single traversal as a reference to a declaration.
func ParseRef(traversal hcl.Traversal) (*Reference, hcl.Diagnostics) {
	root := traversal.RootName()
	switch root {
	case "var":
		return parseSingleAttrRef(traversal, AddrVariable, "variable")
	case "local":
		return parseSingleAttrRef(traversal, AddrLocal, "local value")
	case "output":
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "Output values cannot be referenced from expressions. Reference the resource or local value the output reads instead.",
			Subject:  traversal.SourceRange().Ptr(),
		}}
	}

	// Any other root is a resource type, so the next step must select the
	// resource name.
	if len(traversal) < 2 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   `A reference to a resource must be followed by the resource name, as in "` + root + `.example".`,
			Subject:  traversal.SourceRange().Ptr(),
		}}
	}
	attr, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "A resource name is required after the resource type.",
			Subject:  traversal[1].SourceRange().Ptr(),
		}}
	}
	return &Reference{
		Subject:     ResourceAddr(root, attr.Name),
		SourceRange: hcl.RangeBetween(traversal[0].SourceRange(), attr.SourceRange()),
	}, nil
}

func parseSingleAttrRef(traversal hcl.Traversal, kind AddrKind, noun string) (*Reference, hcl.Diagnostics) {
	root := traversal.RootName()
	if len(traversal) < 2 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   `The "` + root + `" prefix must be followed by a ` + noun + ` name, as in "` + root + `.example".`,
			Subject:  traversal.SourceRange().Ptr(),
		}}
	}
	attr, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "A " + noun + " name is required here.",
			Subject:  traversal[1].SourceRange().Ptr(),
		}}
	}
	return &Reference{
		Subject:     Addr{Kind: kind, Name: attr.Name},
		SourceRange: hcl.RangeBetween(traversal[0].SourceRange(), attr.SourceRange()),
	}, nil
}

// SuggestAddr proposes a close match for a reference that did not resolve,
// for use in diagnostics.
func SuggestAddr(want Addr, known []Addr) string {
	var candidates []string
	for _, addr := range known {
		if addr.Kind == want.Kind {
			candidates = append(candidates, addr.String())
		}
	}
	return suggest.String(want.String(), candidates)
}
