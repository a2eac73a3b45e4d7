package ctyext_test

import (
	"strings"
	"testing"

	"github.com/decl/decl/ctyext"
	"github.com/zclconf/go-cty/cty"
)

func TestApplyTypePath(t *testing.T) {
	obj := cty.Object(map[string]cty.Type{
		"engine":            cty.String,
		"allocated_storage": cty.Number,
		"tags":              cty.Map(cty.String),
		"ports":             cty.List(cty.Number),
		"endpoints":         cty.Tuple([]cty.Type{cty.String, cty.Number}),
	})

	tests := []struct {
		name    string
		ty      cty.Type
		path    cty.Path
		want    cty.Type
		wantErr string
	}{
		{
			name: "Attr",
			ty:   obj,
			path: cty.GetAttrPath("engine"),
			want: cty.String,
		},
		{
			name: "MapElement",
			ty:   obj,
			path: cty.GetAttrPath("tags").GetAttr("Name"),
			want: cty.String,
		},
		{
			name: "ListIndex",
			ty:   obj,
			path: cty.GetAttrPath("ports").Index(cty.NumberIntVal(0)),
			want: cty.Number,
		},
		{
			name: "TupleIndex",
			ty:   obj,
			path: cty.GetAttrPath("endpoints").Index(cty.NumberIntVal(1)),
			want: cty.Number,
		},
		{
			name:    "MissingAttr",
			ty:      obj,
			path:    cty.GetAttrPath("nope"),
			wantErr: `no attribute named "nope"`,
		},
		{
			name:    "MissingNestedAttr",
			ty:      obj,
			path:    cty.GetAttrPath("tags").GetAttr("Name").GetAttr("deep"),
			wantErr: `cannot access attribute "deep", tags.Name is a string`,
		},
		{
			name:    "IndexPrimitive",
			ty:      cty.String,
			path:    cty.IndexPath(cty.NumberIntVal(0)),
			wantErr: "cannot index string",
		},
		{
			name:    "TupleIndexOutOfRange",
			ty:      obj,
			path:    cty.GetAttrPath("endpoints").Index(cty.NumberIntVal(5)),
			wantErr: "out of range for tuple with 2 elements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ctyext.ApplyTypePath(tt.ty, tt.path)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ApplyTypePath() error = nil, want %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ApplyTypePath() error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyTypePath() error = %v", err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("ApplyTypePath() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
