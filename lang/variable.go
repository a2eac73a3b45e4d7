package lang

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/decl/decl/schema"
)

// A Variable is a declared input to a module.
//
// Values for variables arrive from outside the configuration and are checked
// against the declared type constraint before use. A variable with no
// default is required.
type Variable struct {
	Name        string
	Description string

	// Type is the declared type constraint, or cty.NilType when the
	// declaration carries no type argument.
	Type cty.Type

	// Default is the fallback value, already conformed to Type.
	// cty.NilVal when the variable is required.
	Default cty.Value

	Sensitive bool
	Nullable  bool

	// Validations holds the variable's validation rules in declaration
	// order. Evaluation stops at the first rule that fails.
	Validations []*CheckRule

	DeclRange hcl.Range
}

// A CheckRule is one validation block attached to a variable.
type CheckRule struct {
	Condition    hcl.Expression
	ErrorMessage string
	DeclRange    hcl.Range
}

// Required reports whether a value must be supplied for this variable.
func (v *Variable) Required() bool {
	return v.Default == cty.NilVal
}

// ConstraintType returns the type constraint to conform values against.
func (v *Variable) ConstraintType() cty.Type {
	if v.Type == cty.NilType {
		return cty.DynamicPseudoType
	}
	return v.Type
}

// Addr returns the variable's address.
func (v *Variable) Addr() Addr {
	return VariableAddr(v.Name)
}

var variableBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "default"},
		{Name: "description"},
		{Name: "sensitive"},
		{Name: "nullable"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "validation"},
	},
}

var checkRuleSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "condition", Required: true},
		{Name: "error_message", Required: true},
	},
}

func decodeVariableBlock(block *hcl.Block) (*Variable, hcl.Diagnostics) {
	v := &Variable{
		Name:      block.Labels[0],
		Nullable:  true,
		DeclRange: block.DefRange,
	}
	var diags hcl.Diagnostics

	if !hclsyntax.ValidIdentifier(v.Name) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid variable name",
			Detail:   "A variable name must be a valid identifier, starting with a letter and containing only letters, digits, underscores and dashes.",
			Subject:  block.LabelRanges[0].Ptr(),
		})
	}

	content, contentDiags := block.Body.Content(variableBlockSchema)
	diags = append(diags, contentDiags...)

	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &v.Description)...)
	}
	if attr, ok := content.Attributes["sensitive"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &v.Sensitive)...)
	}
	if attr, ok := content.Attributes["nullable"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &v.Nullable)...)
	}
	if attr, ok := content.Attributes["type"]; ok {
		ty, tyDiags := typeexpr.TypeConstraint(attr.Expr)
		diags = append(diags, tyDiags...)
		if !tyDiags.HasErrors() {
			v.Type = ty
		}
	}

	if attr, ok := content.Attributes["default"]; ok {
		// Defaults are literals. No other declaration is in scope while a
		// variable is being declared.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			if v.Type != cty.NilType {
				conformed, mismatches := schema.Conform(val, v.Type)
				for _, m := range mismatches {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Invalid default value for variable",
						Detail:   fmt.Sprintf("The default value does not conform to the variable's type constraint: %s.", m),
						Subject:  attr.Expr.Range().Ptr(),
					})
				}
				if len(mismatches) == 0 {
					val = conformed
				}
			}
			v.Default = val
		}
		if v.Default != cty.NilVal && v.Default.IsNull() && !v.Nullable {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid default value for variable",
				Detail:   "A null default value is not valid when nullable is false.",
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
	}

	for _, vb := range content.Blocks {
		rule, ruleDiags := decodeCheckRule(vb, v.Name)
		diags = append(diags, ruleDiags...)
		if rule != nil {
			v.Validations = append(v.Validations, rule)
		}
	}

	return v, diags
}

func decodeCheckRule(block *hcl.Block, varName string) (*CheckRule, hcl.Diagnostics) {
	rule := &CheckRule{
		DeclRange: block.DefRange,
	}

	content, diags := block.Body.Content(checkRuleSchema)

	if attr, ok := content.Attributes["condition"]; ok {
		rule.Condition = attr.Expr

		// The condition may only depend on the variable it belongs to, so
		// that validation can run before anything else is evaluated.
		selfRef := false
		for _, traversal := range attr.Expr.Variables() {
			ref, refDiags := ParseRef(traversal)
			if refDiags.HasErrors() || ref == nil {
				diags = append(diags, refDiags...)
				continue
			}
			if ref.Subject == VariableAddr(varName) {
				selfRef = true
				continue
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid reference in validation condition",
				Detail:   fmt.Sprintf("The condition for variable %q can only refer to the variable itself, using var.%s.", varName, varName),
				Subject:  ref.SourceRange.Ptr(),
			})
		}
		if !selfRef && !diags.HasErrors() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid validation condition",
				Detail:   fmt.Sprintf("The condition for variable %q must refer to var.%s in order to check it.", varName, varName),
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
	}

	if attr, ok := content.Attributes["error_message"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &rule.ErrorMessage)...)
		if rule.ErrorMessage == "" && !diags.HasErrors() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid validation error message",
				Detail:   "An error message must be a non-empty string describing how the value failed the condition.",
				Subject:  attr.Expr.Range().Ptr(),
			})
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return rule, diags
}

// Validate runs the variable's validation rules against a candidate value,
// in declaration order, stopping at the first rule that fails. The returned
// diagnostics carry the failing rule's error message.
//
// The value must already conform to the variable's type constraint and must
// not carry marks. Sensitivity marking happens after validation.
func (v *Variable) Validate(val cty.Value) hcl.Diagnostics {
	for _, rule := range v.Validations {
		ctx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"var": cty.ObjectVal(map[string]cty.Value{v.Name: val}),
			},
			Functions: Functions(),
		}

		result, diags := rule.Condition.Value(ctx)
		if diags.HasErrors() {
			return diags
		}

		result, err := convert.Convert(result, cty.Bool)
		if err != nil {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid validation condition result",
				Detail:   fmt.Sprintf("The condition for variable %q must produce a boolean, but produced %s.", v.Name, err),
				Subject:  rule.Condition.Range().Ptr(),
			}}
		}
		if result.IsNull() {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid validation condition result",
				Detail:   fmt.Sprintf("The condition for variable %q produced null. A condition must produce true or false.", v.Name),
				Subject:  rule.Condition.Range().Ptr(),
			}}
		}
		if !result.IsKnown() {
			continue
		}

		if result.False() {
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Invalid value for variable %q", v.Name),
				Detail:   rule.ErrorMessage,
				Subject:  rule.Condition.Range().Ptr(),
			}}
		}
	}
	return nil
}
