// Package schema implements structural type-checking of candidate values
// against declared type constraints.
//
// The rules are stricter than the conversions cty allows by default:
// primitive kinds never convert into each other, so a number is not accepted
// where a string is declared and vice versa. Structural reshaping that
// cannot lose information is allowed: a tuple literal conforms to a list or
// set when every element conforms, and an object literal conforms to a map
// when every attribute value conforms.
package schema

import (
	"fmt"
	"sort"

	"github.com/decl/decl/ctyext"
	"github.com/decl/decl/suggest"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// A Mismatch describes a single location where a candidate value does not
// match the declared type.
type Mismatch struct {
	// Path locates the offending value within the candidate. Empty for the
	// top-level value itself.
	Path cty.Path

	// Detail is a human readable description of the mismatch.
	Detail string
}

func (m *Mismatch) Error() string {
	if len(m.Path) == 0 {
		return m.Detail
	}
	return fmt.Sprintf("%s: %s", ctyext.PathString(m.Path), m.Detail)
}

func mismatchf(path cty.Path, format string, args ...interface{}) *Mismatch {
	// Copy the path; the walk mutates its backing array.
	p := make(cty.Path, len(path))
	copy(p, path)
	return &Mismatch{Path: p, Detail: fmt.Sprintf(format, args...)}
}

// Conform checks the candidate value against the declared type constraint
// and, on success, returns the value converted to that type. The input must
// not carry marks; callers apply sensitivity marks after conformance.
//
// Conform is a pure function: re-checking an accepted value yields the same
// accepted value.
func Conform(val cty.Value, want cty.Type) (cty.Value, []*Mismatch) {
	if ms := check(val, want, nil); len(ms) > 0 {
		return cty.NilVal, ms
	}

	out, err := convert.Convert(val, want)
	if err != nil {
		// The strict walk accepts a few shapes the cty converter cannot
		// reconcile, such as mixed-type elements against an any constraint.
		ms := []*Mismatch{mismatchf(nil, "%s", err.Error())}
		return cty.NilVal, ms
	}
	return out, nil
}

// check performs the strict structural walk. It appends one Mismatch per
// offending location so that a user can fix all problems in one pass.
func check(val cty.Value, want cty.Type, path cty.Path) []*Mismatch {
	if want == cty.NilType || want == cty.DynamicPseudoType {
		return nil
	}
	if val.IsNull() || !val.IsKnown() {
		// Null conforms to every type; nullability is enforced by the
		// variable layer where the declaration is known.
		return nil
	}

	got := val.Type()

	switch {
	case want.IsPrimitiveType():
		if !got.IsPrimitiveType() {
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		if !got.Equals(want) {
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyName())}
		}
		return nil

	case want.IsListType(), want.IsSetType():
		ety := want.ElementType()
		switch {
		case got.IsTupleType():
			var ms []*Mismatch
			for i, ev := range val.AsValueSlice() {
				ms = append(ms, check(ev, ety, append(path, cty.IndexStep{Key: cty.NumberIntVal(int64(i))}))...)
			}
			return ms
		case got.IsListType(), got.IsSetType():
			return checkType(got.ElementType(), ety, path)
		default:
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}

	case want.IsMapType():
		ety := want.ElementType()
		switch {
		case got.IsObjectType():
			attrs := val.AsValueMap()
			var ms []*Mismatch
			for _, name := range sortedKeys(attrs) {
				ms = append(ms, check(attrs[name], ety, append(path, cty.GetAttrStep{Name: name}))...)
			}
			return ms
		case got.IsMapType():
			return checkType(got.ElementType(), ety, path)
		default:
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}

	case want.IsTupleType():
		etys := want.TupleElementTypes()
		if !got.IsTupleType() && !got.IsListType() && !got.IsSetType() {
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		elems := val.AsValueSlice()
		if len(elems) != len(etys) {
			return []*Mismatch{mismatchf(path, "tuple of %d elements required, but have %d elements", len(etys), len(elems))}
		}
		var ms []*Mismatch
		for i, ev := range elems {
			ms = append(ms, check(ev, etys[i], append(path, cty.IndexStep{Key: cty.NumberIntVal(int64(i))}))...)
		}
		return ms

	case want.IsObjectType():
		if !got.IsObjectType() && !got.IsMapType() {
			return []*Mismatch{mismatchf(path, "%s required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		attrs := val.AsValueMap()
		wantAttrs := want.AttributeTypes()
		declared := sortedTypeKeys(wantAttrs)

		var ms []*Mismatch
		for _, name := range declared {
			av, ok := attrs[name]
			if !ok {
				ms = append(ms, mismatchf(path, "attribute %q is required", name))
				continue
			}
			ms = append(ms, check(av, wantAttrs[name], append(path, cty.GetAttrStep{Name: name}))...)
		}
		for _, name := range sortedKeys(attrs) {
			if want.HasAttribute(name) {
				continue
			}
			m := mismatchf(path, "unexpected attribute %q", name)
			if s := suggest.String(name, declared); s != "" {
				m.Detail += fmt.Sprintf(", did you mean %q?", s)
			}
			ms = append(ms, m)
		}
		return ms

	default:
		// Capsule and other exotic constraints cannot be declared through
		// the type expression syntax.
		return []*Mismatch{mismatchf(path, "unsupported type constraint %s", want.FriendlyName())}
	}
}

// checkType compares two types structurally, used where a collection value
// carries no elements to inspect.
func checkType(got, want cty.Type, path cty.Path) []*Mismatch {
	if want == cty.DynamicPseudoType || got == cty.DynamicPseudoType {
		return nil
	}

	switch {
	case want.IsPrimitiveType():
		if !got.Equals(want) {
			return []*Mismatch{mismatchf(path, "%s element required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		return nil
	case want.IsListType() || want.IsSetType():
		if !got.IsListType() && !got.IsSetType() && !got.IsTupleType() {
			return []*Mismatch{mismatchf(path, "%s element required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		if got.IsTupleType() {
			var ms []*Mismatch
			for _, ety := range got.TupleElementTypes() {
				ms = append(ms, checkType(ety, want.ElementType(), path)...)
			}
			return ms
		}
		return checkType(got.ElementType(), want.ElementType(), path)
	case want.IsMapType():
		if !got.IsMapType() && !got.IsObjectType() {
			return []*Mismatch{mismatchf(path, "%s element required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		if got.IsObjectType() {
			var ms []*Mismatch
			for _, aty := range got.AttributeTypes() {
				ms = append(ms, checkType(aty, want.ElementType(), path)...)
			}
			return ms
		}
		return checkType(got.ElementType(), want.ElementType(), path)
	case want.IsTupleType():
		if !got.IsTupleType() {
			return []*Mismatch{mismatchf(path, "%s element required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		gtys, wtys := got.TupleElementTypes(), want.TupleElementTypes()
		if len(gtys) != len(wtys) {
			return []*Mismatch{mismatchf(path, "tuple of %d elements required, but have %d elements", len(wtys), len(gtys))}
		}
		var ms []*Mismatch
		for i := range wtys {
			ms = append(ms, checkType(gtys[i], wtys[i], path)...)
		}
		return ms
	case want.IsObjectType():
		if !got.IsObjectType() {
			return []*Mismatch{mismatchf(path, "%s element required, but have %s", want.FriendlyName(), got.FriendlyNameForConstraint())}
		}
		wantAttrs := want.AttributeTypes()
		var ms []*Mismatch
		for _, name := range sortedTypeKeys(wantAttrs) {
			if !got.HasAttribute(name) {
				ms = append(ms, mismatchf(path, "attribute %q is required", name))
				continue
			}
			ms = append(ms, checkType(got.AttributeType(name), wantAttrs[name], path)...)
		}
		for _, name := range sortedTypeKeys(got.AttributeTypes()) {
			if !want.HasAttribute(name) {
				ms = append(ms, mismatchf(path, "unexpected attribute %q", name))
			}
		}
		return ms
	default:
		return []*Mismatch{mismatchf(path, "unsupported type constraint %s", want.FriendlyName())}
	}
}

func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTypeKeys(m map[string]cty.Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
