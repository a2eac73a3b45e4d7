package lang

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// An Output exposes a computed value as a result of evaluation.
type Output struct {
	Name        string
	Description string

	// Expr produces the output's value.
	Expr hcl.Expression

	// Sensitive forces redaction when the value is rendered, even if the
	// value itself carries no sensitive parts.
	Sensitive bool

	DeclRange hcl.Range
}

// Addr returns the output's address.
func (o *Output) Addr() Addr {
	return OutputAddr(o.Name)
}

var outputBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "value", Required: true},
		{Name: "description"},
		{Name: "sensitive"},
	},
}

func decodeOutputBlock(block *hcl.Block) (*Output, hcl.Diagnostics) {
	o := &Output{
		Name:      block.Labels[0],
		DeclRange: block.DefRange,
	}

	var diags hcl.Diagnostics
	if !hclsyntax.ValidIdentifier(o.Name) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid output name",
			Detail:   "An output name must be a valid identifier, starting with a letter and containing only letters, digits, underscores and dashes.",
			Subject:  block.LabelRanges[0].Ptr(),
		})
	}

	content, contentDiags := block.Body.Content(outputBlockSchema)
	diags = append(diags, contentDiags...)

	if attr, ok := content.Attributes["value"]; ok {
		o.Expr = attr.Expr
	}
	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &o.Description)...)
	}
	if attr, ok := content.Attributes["sensitive"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &o.Sensitive)...)
	}

	return o, diags
}
