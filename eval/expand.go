package eval

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"github.com/decl/decl/ctyext"
	"github.com/decl/decl/lang"
)

// expandResource evaluates a resource into its aggregate value: a single
// object without a driver, a tuple of instances under count, or an object
// keyed by string under for_each.
func (e *Evaluator) expandResource(r *lang.Resource, ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	body, ok := r.Config.(*hclsyntax.Body)
	if !ok {
		return cty.DynamicVal, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported resource body",
			Detail:   fmt.Sprintf("The body of %s does not use native syntax and cannot be evaluated.", r.Addr()),
			Subject:  r.DeclRange.Ptr(),
		}}
	}

	switch {
	case r.Count != nil:
		n, diags := e.evalCount(r, ctx)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		e.log().Debug("expanding resource",
			zap.String("addr", r.Addr().String()),
			zap.Int64("count", n))

		instances := make([]cty.Value, 0, n)
		for i := int64(0); i < n; i++ {
			child := instanceScope(ctx, "count", cty.ObjectVal(map[string]cty.Value{
				"index": cty.NumberIntVal(i),
			}))
			val, valDiags := evalBody(body, child, true)
			diags = append(diags, valDiags...)
			instances = append(instances, val)
		}
		if len(instances) == 0 {
			return cty.EmptyTupleVal, diags
		}
		return cty.TupleVal(instances), diags

	case r.ForEach != nil:
		pairs, diags := e.evalForEach(r, ctx)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		e.log().Debug("expanding resource",
			zap.String("addr", r.Addr().String()),
			zap.Int("for_each", len(pairs)))

		instances := make(map[string]cty.Value, len(pairs))
		for _, pair := range pairs {
			child := instanceScope(ctx, "each", cty.ObjectVal(map[string]cty.Value{
				"key":   cty.StringVal(pair.key),
				"value": pair.value,
			}))
			val, valDiags := evalBody(body, child, true)
			diags = append(diags, valDiags...)
			instances[pair.key] = val
		}
		if len(instances) == 0 {
			return cty.EmptyObjectVal, diags
		}
		return cty.ObjectVal(instances), diags

	default:
		return evalBody(body, ctx, true)
	}
}

// evalCount resolves a count driver to a non-negative whole number.
func (e *Evaluator) evalCount(r *lang.Resource, ctx *hcl.EvalContext) (int64, hcl.Diagnostics) {
	errf := func(format string, args ...interface{}) (int64, hcl.Diagnostics) {
		return 0, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid count argument",
			Detail:   fmt.Sprintf(format, args...),
			Subject:  r.Count.Range().Ptr(),
		}}
	}

	v, diags := r.Count.Value(ctx)
	if diags.HasErrors() {
		return 0, diags
	}
	if ctyext.IsSensitive(v) {
		return errf("The count for %s is derived from a sensitive value. Expansion would reveal it through the number of instances.", r.Addr())
	}
	if v.IsNull() {
		return errf("The count for %s is null. Use a number, or omit count for a single instance.", r.Addr())
	}
	if !v.IsKnown() {
		return errf("The count for %s could not be determined.", r.Addr())
	}
	if !v.Type().Equals(cty.Number) {
		return errf("The count for %s must be a number, but this expression produced %s.", r.Addr(), v.Type().FriendlyName())
	}
	n, acc := v.AsBigFloat().Int64()
	if acc != big.Exact {
		return errf("The count for %s must be a whole number.", r.Addr())
	}
	if n < 0 {
		return errf("The count for %s must be at least 0.", r.Addr())
	}
	return n, nil
}

type eachPair struct {
	key   string
	value cty.Value
}

// evalForEach resolves a for_each driver to key/value pairs, sorted by key
// for deterministic instance order.
func (e *Evaluator) evalForEach(r *lang.Resource, ctx *hcl.EvalContext) ([]eachPair, hcl.Diagnostics) {
	errf := func(format string, args ...interface{}) ([]eachPair, hcl.Diagnostics) {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid for_each argument",
			Detail:   fmt.Sprintf(format, args...),
			Subject:  r.ForEach.Range().Ptr(),
		}}
	}

	v, diags := r.ForEach.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if ctyext.IsSensitive(v) {
		return errf("The for_each for %s is derived from a sensitive value. Expansion would reveal it through the instance keys.", r.Addr())
	}
	if v.IsNull() {
		return errf("The for_each for %s is null. Use a map or a set of strings.", r.Addr())
	}
	if !v.IsKnown() {
		return errf("The for_each for %s could not be determined.", r.Addr())
	}

	ty := v.Type()
	switch {
	case ty.IsMapType() || ty.IsObjectType():
		m := v.AsValueMap()
		pairs := make([]eachPair, 0, len(m))
		for _, key := range sortedNames(m) {
			pairs = append(pairs, eachPair{key: key, value: m[key]})
		}
		return pairs, diags

	case ty.IsSetType():
		if !ty.ElementType().Equals(cty.String) {
			return errf("The for_each for %s is a set of %s. Only sets of strings can name instances.", r.Addr(), ty.ElementType().FriendlyName())
		}
		var pairs []eachPair
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.IsNull() {
				return errf("The for_each for %s contains a null element. Instance keys must be strings.", r.Addr())
			}
			pairs = append(pairs, eachPair{key: ev.AsString(), value: ev})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
		return pairs, diags

	case ty.IsTupleType() || ty.IsListType():
		return errf("The for_each for %s is a %s. Use a map, or convert the sequence with convert(expr, set(string)) so each instance has a stable key.", r.Addr(), ty.FriendlyName())

	default:
		return errf("The for_each for %s must be a map or a set of strings, but this expression produced %s.", r.Addr(), ty.FriendlyName())
	}
}

// instanceScope derives a child context with one extra scope object, such
// as count.index or each.key, visible only inside the instance body.
func instanceScope(parent *hcl.EvalContext, name string, val cty.Value) *hcl.EvalContext {
	child := parent.NewChild()
	child.Variables = map[string]cty.Value{name: val}
	return child
}

// evalBody evaluates a resource body to an object value. Nested blocks
// become nested object attributes; a repeated block type becomes a tuple
// in declaration order.
func evalBody(body *hclsyntax.Body, ctx *hcl.EvalContext, top bool) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	vals := make(map[string]cty.Value)

	for _, name := range sortedNames(body.Attributes) {
		if top && resourceMetaArgs[name] {
			continue
		}
		v, valDiags := body.Attributes[name].Expr.Value(ctx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			v = cty.DynamicVal
		}
		vals[name] = v
	}

	byType := make(map[string][]cty.Value)
	var typeOrder []string
	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected label on nested block",
				Detail:   fmt.Sprintf("Nested %s blocks do not take labels.", block.Type),
				Subject:  block.LabelRanges[0].Ptr(),
			})
			continue
		}
		if _, clash := vals[block.Type]; clash {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Block name collides with attribute",
				Detail:   fmt.Sprintf("An attribute named %q is already set in this body.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
			continue
		}
		v, blockDiags := evalBody(block.Body, ctx, false)
		diags = append(diags, blockDiags...)
		if _, seen := byType[block.Type]; !seen {
			typeOrder = append(typeOrder, block.Type)
		}
		byType[block.Type] = append(byType[block.Type], v)
	}
	for _, typ := range typeOrder {
		group := byType[typ]
		if len(group) == 1 {
			vals[typ] = group[0]
			continue
		}
		vals[typ] = cty.TupleVal(group)
	}

	if len(vals) == 0 {
		return cty.EmptyObjectVal, diags
	}
	return cty.ObjectVal(vals), diags
}
