package ctyext_test

import (
	"testing"

	"github.com/decl/decl/ctyext"
	"github.com/zclconf/go-cty/cty"
)

func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path cty.Path
		want string
	}{
		{
			"Empty",
			nil,
			"",
		},
		{
			"Attr",
			cty.GetAttrPath("allocated_storage"),
			"allocated_storage",
		},
		{
			"NestedAttr",
			cty.GetAttrPath("database_config").GetAttr("allocated_storage"),
			"database_config.allocated_storage",
		},
		{
			"NumberIndex",
			cty.GetAttrPath("port_numbers").Index(cty.NumberIntVal(2)),
			"port_numbers[2]",
		},
		{
			"StringIndex",
			cty.GetAttrPath("zones").Index(cty.StringVal("us-west-2a")).GetAttr("cidr"),
			`zones["us-west-2a"].cidr`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ctyext.PathString(tt.path)
			if got != tt.want {
				t.Errorf("PathString() = %q, want %q", got, tt.want)
			}
		})
	}
}
