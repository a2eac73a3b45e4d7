package lang

import (
	"github.com/hashicorp/hcl/v2/ext/tryfunc"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions returns the table of functions available to expressions.
//
// The set is a curated slice of the cty standard library plus a few
// conveniences that configuration authors expect. Conversion functions are
// explicit opt-ins. Bare expressions never convert between primitive kinds
// on their own.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		// Numeric.
		"abs":      stdlib.AbsoluteFunc,
		"ceil":     stdlib.CeilFunc,
		"floor":    stdlib.FloorFunc,
		"int":      stdlib.IntFunc,
		"log":      stdlib.LogFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"parseint": stdlib.ParseIntFunc,
		"pow":      stdlib.PowFunc,
		"signum":   stdlib.SignumFunc,

		// String.
		"chomp":      stdlib.ChompFunc,
		"format":     stdlib.FormatFunc,
		"formatlist": stdlib.FormatListFunc,
		"indent":     stdlib.IndentFunc,
		"join":       stdlib.JoinFunc,
		"lower":      stdlib.LowerFunc,
		"regex":      stdlib.RegexFunc,
		"regexall":   stdlib.RegexAllFunc,
		"replace":    stdlib.ReplaceFunc,
		"split":      stdlib.SplitFunc,
		"strrev":     stdlib.ReverseFunc,
		"substr":     stdlib.SubstrFunc,
		"title":      stdlib.TitleFunc,
		"trim":       stdlib.TrimFunc,
		"trimprefix": stdlib.TrimPrefixFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"trimsuffix": stdlib.TrimSuffixFunc,
		"upper":      stdlib.UpperFunc,

		// Collection.
		"chunklist":       stdlib.ChunklistFunc,
		"coalesce":        stdlib.CoalesceFunc,
		"coalescelist":    stdlib.CoalesceListFunc,
		"compact":         stdlib.CompactFunc,
		"concat":          stdlib.ConcatFunc,
		"contains":        stdlib.ContainsFunc,
		"distinct":        stdlib.DistinctFunc,
		"element":         stdlib.ElementFunc,
		"flatten":         stdlib.FlattenFunc,
		"index":           stdlib.IndexFunc,
		"keys":            stdlib.KeysFunc,
		"length":          lengthFunc,
		"lookup":          stdlib.LookupFunc,
		"merge":           stdlib.MergeFunc,
		"range":           stdlib.RangeFunc,
		"reverse":         stdlib.ReverseListFunc,
		"setintersection": stdlib.SetIntersectionFunc,
		"setproduct":      stdlib.SetProductFunc,
		"setsubtract":     stdlib.SetSubtractFunc,
		"setunion":        stdlib.SetUnionFunc,
		"slice":           stdlib.SliceFunc,
		"sort":            stdlib.SortFunc,
		"values":          stdlib.ValuesFunc,
		"zipmap":          stdlib.ZipmapFunc,

		// Predicates.
		"alltrue": allTrueFunc,
		"anytrue": anyTrueFunc,

		// Encoding and time.
		"csvdecode":  stdlib.CSVDecodeFunc,
		"formatdate": stdlib.FormatDateFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"timeadd":    stdlib.TimeAddFunc,

		// Explicit conversion.
		"convert":  typeexpr.ConvertFunc,
		"tobool":   makeToFunc(cty.Bool),
		"tonumber": makeToFunc(cty.Number),
		"tostring": makeToFunc(cty.String),

		// Error handling.
		"can": tryfunc.CanFunc,
		"try": tryfunc.TryFunc,
	}
}

// lengthFunc is like stdlib.LengthFunc but also accepts strings, counting
// characters rather than collection elements.
var lengthFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name:             "value",
			Type:             cty.DynamicPseudoType,
			AllowDynamicType: true,
			AllowUnknown:     true,
		},
	},
	Type: func(args []cty.Value) (cty.Type, error) {
		return cty.Number, nil
	},
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if args[0].Type().Equals(cty.String) {
			return stdlib.Strlen(args[0])
		}
		return stdlib.Length(args[0])
	},
})

// allTrueFunc returns true only if every element of the given list of
// booleans is true. Null elements count as false.
var allTrueFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name:         "list",
			Type:         cty.List(cty.Bool),
			AllowUnknown: true,
			AllowNull:    false,
		},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if !args[0].IsKnown() {
			return cty.UnknownVal(cty.Bool), nil
		}
		result := cty.True
		for it := args[0].ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.IsNull() {
				return cty.False, nil
			}
			if !v.IsKnown() {
				return cty.UnknownVal(cty.Bool), nil
			}
			if v.False() {
				result = cty.False
			}
		}
		return result, nil
	},
})

// anyTrueFunc returns true if at least one element of the given list of
// booleans is true. Null elements count as false.
var anyTrueFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name:         "list",
			Type:         cty.List(cty.Bool),
			AllowUnknown: true,
			AllowNull:    false,
		},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if !args[0].IsKnown() {
			return cty.UnknownVal(cty.Bool), nil
		}
		result := cty.False
		var hasUnknown bool
		for it := args[0].ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.IsNull() {
				continue
			}
			if !v.IsKnown() {
				hasUnknown = true
				continue
			}
			if v.True() {
				return cty.True, nil
			}
		}
		if hasUnknown {
			return cty.UnknownVal(cty.Bool), nil
		}
		return result, nil
	},
})

// makeToFunc builds an explicit conversion function to the given primitive
// type. Unlike implicit expression evaluation, these functions may change a
// value's primitive kind, for example tostring(80) is "80".
func makeToFunc(target cty.Type) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "value",
				Type:             cty.DynamicPseudoType,
				AllowDynamicType: true,
				AllowNull:        true,
			},
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			return target, nil
		},
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			got, err := convert.Convert(args[0], target)
			if err != nil {
				return cty.NilVal, function.NewArgError(0, err)
			}
			return got, nil
		},
	})
}
