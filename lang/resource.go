package lang

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// A Resource declares one configuration object of a given type.
//
// The body's attributes are arbitrary. The model does not interpret them
// beyond evaluating their expressions, so any resource type tag is
// acceptable. count and for_each multiply the declaration into zero or more
// instances at evaluation time.
type Resource struct {
	Type string
	Name string

	// Config is the body holding the resource's own attributes, with the
	// meta-arguments already consumed.
	Config hcl.Body

	// Count and ForEach are mutually exclusive expansion arguments.
	// Both nil means the resource is a single instance.
	Count   hcl.Expression
	ForEach hcl.Expression

	// DependsOn lists resources that must be evaluated first even though
	// no expression references them.
	DependsOn []*Reference

	DeclRange hcl.Range
}

// Addr returns the resource's address.
func (r *Resource) Addr() Addr {
	return ResourceAddr(r.Type, r.Name)
}

var resourceBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "count"},
		{Name: "for_each"},
		{Name: "depends_on"},
	},
}

func decodeResourceBlock(block *hcl.Block) (*Resource, hcl.Diagnostics) {
	r := &Resource{
		Type:      block.Labels[0],
		Name:      block.Labels[1],
		DeclRange: block.DefRange,
	}
	var diags hcl.Diagnostics

	if !hclsyntax.ValidIdentifier(r.Type) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid resource type",
			Detail:   "A resource type must be a valid identifier, starting with a letter and containing only letters, digits, underscores and dashes.",
			Subject:  block.LabelRanges[0].Ptr(),
		})
	}
	if !hclsyntax.ValidIdentifier(r.Name) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid resource name",
			Detail:   "A resource name must be a valid identifier, starting with a letter and containing only letters, digits, underscores and dashes.",
			Subject:  block.LabelRanges[1].Ptr(),
		})
	}

	content, remain, contentDiags := block.Body.PartialContent(resourceBlockSchema)
	diags = append(diags, contentDiags...)
	r.Config = remain

	if attr, ok := content.Attributes["count"]; ok {
		r.Count = attr.Expr
	}
	if attr, ok := content.Attributes["for_each"]; ok {
		r.ForEach = attr.Expr
	}
	if r.Count != nil && r.ForEach != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  `Conflicting "count" and "for_each" arguments`,
			Detail:   "A resource may be expanded by count or by for_each, but not both.",
			Subject:  r.ForEach.Range().Ptr(),
			Context:  r.Count.Range().Ptr(),
		})
	}

	if attr, ok := content.Attributes["depends_on"]; ok {
		exprs, listDiags := hcl.ExprList(attr.Expr)
		diags = append(diags, listDiags...)
		for _, expr := range exprs {
			traversal, travDiags := hcl.AbsTraversalForExpr(expr)
			diags = append(diags, travDiags...)
			if travDiags.HasErrors() {
				continue
			}
			ref, refDiags := ParseRef(traversal)
			diags = append(diags, refDiags...)
			if ref == nil {
				continue
			}
			if ref.Subject.Kind != AddrResource {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid depends_on entry",
					Detail:   "depends_on accepts resource addresses only, as in [aws_vpc.main]. Variables and locals already order themselves through references.",
					Subject:  ref.SourceRange.Ptr(),
				})
				continue
			}
			r.DependsOn = append(r.DependsOn, ref)
		}
	}

	return r, diags
}
