package main

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/decl/decl/ctyext"
)

// renderValue renders a value for display. Sensitive values are redacted,
// whether the declaration flags them or any part of the value carries a
// mark.
func renderValue(v cty.Value, sensitive bool) string {
	if sensitive || ctyext.IsSensitive(v) {
		return "(sensitive)"
	}
	raw, _ := ctyext.Declassify(v)
	b, err := ctyjson.Marshal(raw, raw.Type())
	if err != nil {
		return fmt.Sprintf("(unrenderable: %s)", err)
	}
	return string(b)
}
