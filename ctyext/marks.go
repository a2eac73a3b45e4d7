package ctyext

import "github.com/zclconf/go-cty/cty"

// Sensitive is the mark applied to values that originate from a declaration
// with sensitive = true. Marks travel through expression evaluation, so any
// value derived from a sensitive value carries the mark as well.
const Sensitive = "sensitive"

// MarkSensitive marks the value as sensitive. Marking an already marked
// value is a no-op.
func MarkSensitive(v cty.Value) cty.Value {
	if v.HasMark(Sensitive) {
		return v
	}
	return v.Mark(Sensitive)
}

// IsSensitive reports whether the value or any value nested within it
// carries the sensitive mark.
func IsSensitive(v cty.Value) bool {
	if v == cty.NilVal {
		return false
	}
	return v.ContainsMarked() || v.HasMark(Sensitive)
}

// Declassify removes all marks from the value, including nested ones, and
// reports whether any sensitive mark was removed. Storage and encoding
// require unmarked values; callers are responsible for carrying the
// sensitivity flag alongside the raw value.
func Declassify(v cty.Value) (cty.Value, bool) {
	if v == cty.NilVal {
		return v, false
	}
	unmarked, pvm := v.UnmarkDeepWithPaths()
	sensitive := false
	for _, pm := range pvm {
		if _, ok := pm.Marks[Sensitive]; ok {
			sensitive = true
			break
		}
	}
	return unmarked, sensitive
}
