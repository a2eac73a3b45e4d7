package ctyext_test

import (
	"testing"

	"github.com/decl/decl/ctyext"
	"github.com/zclconf/go-cty/cty"
)

func TestSensitiveMarks(t *testing.T) {
	plain := cty.StringVal("supersecret")
	marked := ctyext.MarkSensitive(plain)

	if ctyext.IsSensitive(plain) {
		t.Error("IsSensitive(plain) = true, want false")
	}
	if !ctyext.IsSensitive(marked) {
		t.Error("IsSensitive(marked) = false, want true")
	}

	// Marking twice must not stack marks.
	twice := ctyext.MarkSensitive(marked)
	if !twice.RawEquals(marked) {
		t.Error("double mark changed the value")
	}

	// Nested marks are detected.
	obj := cty.ObjectVal(map[string]cty.Value{
		"user": cty.StringVal("admin"),
		"pass": marked,
	})
	if !ctyext.IsSensitive(obj) {
		t.Error("IsSensitive(nested) = false, want true")
	}

	// Declassify strips all marks and reports sensitivity.
	got, sensitive := ctyext.Declassify(obj)
	if !sensitive {
		t.Error("Declassify() sensitive = false, want true")
	}
	want := cty.ObjectVal(map[string]cty.Value{
		"user": cty.StringVal("admin"),
		"pass": cty.StringVal("supersecret"),
	})
	if !got.RawEquals(want) {
		t.Errorf("Declassify() = %#v, want %#v", got, want)
	}

	got, sensitive = ctyext.Declassify(cty.StringVal("open"))
	if sensitive {
		t.Error("Declassify(plain) sensitive = true, want false")
	}
	if !got.RawEquals(cty.StringVal("open")) {
		t.Errorf("Declassify(plain) = %#v", got)
	}
}
