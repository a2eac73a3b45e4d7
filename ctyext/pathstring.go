// Package ctyext contains small extensions to the cty type system that are
// shared by the decoder, the schema checker and the evaluator.
package ctyext

import (
	"bytes"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// PathString renders a cty path the way a user would write it in
// configuration, for use in diagnostics:
//
//	database_config.allocated_storage
//	port_numbers[2]
//	zones["us-west-2a"].cidr
func PathString(path cty.Path) string {
	var buf bytes.Buffer
	for i, step := range path {
		switch s := step.(type) {
		case cty.GetAttrStep:
			if i > 0 {
				buf.WriteByte('.')
			}
			buf.WriteString(s.Name)
		case cty.IndexStep:
			if s.Key.Type() == cty.Number {
				n, _ := s.Key.AsBigFloat().Int64()
				fmt.Fprintf(&buf, "[%d]", n)
				continue
			}
			fmt.Fprintf(&buf, "[%q]", s.Key.AsString())
		default:
			panic(fmt.Sprintf("unknown path step %T", s))
		}
	}
	return buf.String()
}
