package ctyext

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ApplyTypePath applies the given path to a type and returns the type at
// that path. It is analogous to cty.Path.Apply() for values, and is used to
// verify that a reference into a declared object or collection type is valid
// before any value exists.
//
// Attribute access is expressed with GetAttrSteps, element access with
// IndexSteps. Tuples require a statically known numeric key.
func ApplyTypePath(ty cty.Type, path cty.Path) (cty.Type, error) {
	for i, step := range path {
		switch s := step.(type) {
		case cty.GetAttrStep:
			switch {
			case ty.IsMapType():
				ty = ty.ElementType()
			case ty.IsObjectType():
				if !ty.HasAttribute(s.Name) {
					str := fmt.Sprintf("no attribute named %q", s.Name)
					if i > 0 {
						str += fmt.Sprintf(" in %s", PathString(path[:i]))
					}
					return cty.NilType, fmt.Errorf("%s", str)
				}
				ty = ty.AttributeType(s.Name)
			default:
				str := fmt.Sprintf("cannot access attribute %q", s.Name)
				if i > 0 {
					str += fmt.Sprintf(", %s is a %s", PathString(path[:i]), ty.FriendlyNameForConstraint())
				} else {
					str += fmt.Sprintf(" in %s", ty.FriendlyNameForConstraint())
				}
				return cty.NilType, fmt.Errorf("%s", str)
			}
		case cty.IndexStep:
			switch {
			case ty.IsCollectionType():
				ty = ty.ElementType()
			case ty.IsTupleType():
				if s.Key.Type() != cty.Number {
					return cty.NilType, fmt.Errorf("tuple %s must be indexed with a number", PathString(path[:i]))
				}
				n, acc := s.Key.AsBigFloat().Int64()
				etys := ty.TupleElementTypes()
				if acc != 0 || n < 0 || int(n) >= len(etys) {
					return cty.NilType, fmt.Errorf("index %s out of range for tuple with %d elements", s.Key.GoString(), len(etys))
				}
				ty = etys[n]
			default:
				str := fmt.Sprintf("cannot index %s", ty.FriendlyName())
				if i > 0 {
					str = fmt.Sprintf("cannot index %s, %s", PathString(path[:i]), ty.FriendlyName())
				}
				return cty.NilType, fmt.Errorf("%s", str)
			}
		}
	}
	return ty, nil
}
