package graph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/decl/decl/lang"
)

func TestTopoOrder(t *testing.T) {
	g := New()

	// output.url <- aws_instance.web <- local.name <- var.prefix
	//                              ^---- var.count_num
	for _, addr := range []lang.Addr{
		lang.OutputAddr("url"),
		lang.ResourceAddr("aws_instance", "web"),
		lang.LocalAddr("name"),
		lang.VariableAddr("prefix"),
		lang.VariableAddr("count_num"),
	} {
		g.AddDecl(addr)
	}

	refs := []struct {
		referrer, subject lang.Addr
	}{
		{lang.LocalAddr("name"), lang.VariableAddr("prefix")},
		{lang.ResourceAddr("aws_instance", "web"), lang.LocalAddr("name")},
		{lang.ResourceAddr("aws_instance", "web"), lang.VariableAddr("count_num")},
		{lang.OutputAddr("url"), lang.ResourceAddr("aws_instance", "web")},
	}
	for _, r := range refs {
		if err := g.AddReference(r.referrer, r.subject, nil); err != nil {
			t.Fatal(err)
		}
	}

	order, cycles := g.TopoOrder()
	if len(cycles) != 0 {
		t.Fatalf("unexpected cycles: %v", cycles)
	}

	want := []lang.Addr{
		lang.VariableAddr("count_num"),
		lang.VariableAddr("prefix"),
		lang.LocalAddr("name"),
		lang.ResourceAddr("aws_instance", "web"),
		lang.OutputAddr("url"),
	}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	// The order must be reproducible run over run.
	for i := 0; i < 5; i++ {
		again, _ := g.TopoOrder()
		if diff := cmp.Diff(order, again); diff != "" {
			t.Fatalf("order changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestTopoOrderCycle(t *testing.T) {
	g := New()
	a := lang.LocalAddr("a")
	b := lang.LocalAddr("b")
	c := lang.LocalAddr("c")
	solo := lang.VariableAddr("solo")
	for _, addr := range []lang.Addr{a, b, c, solo} {
		g.AddDecl(addr)
	}
	// a -> b -> c -> a
	if err := g.AddReference(b, a, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.AddReference(c, b, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.AddReference(a, c, nil); err != nil {
		t.Fatal(err)
	}

	order, cycles := g.TopoOrder()
	if order != nil {
		t.Errorf("expected nil order with cycles, got %v", order)
	}
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
	want := Cycle{a, b, c}
	if diff := cmp.Diff(want, cycles[0]); diff != "" {
		t.Errorf("cycle members mismatch (-want +got):\n%s", diff)
	}
}

func TestAddReferenceErrors(t *testing.T) {
	g := New()
	a := lang.LocalAddr("a")
	g.AddDecl(a)

	if err := g.AddReference(a, lang.VariableAddr("missing"), nil); err == nil {
		t.Error("expected error for undeclared subject")
	}
	if err := g.AddReference(lang.VariableAddr("missing"), a, nil); err == nil {
		t.Error("expected error for undeclared referrer")
	}
	if err := g.AddReference(a, a, nil); err == nil {
		t.Error("expected error for self-reference")
	}
}

func TestDependenciesAndDependents(t *testing.T) {
	g := New()
	v := lang.VariableAddr("region")
	l1 := lang.LocalAddr("a")
	l2 := lang.LocalAddr("b")
	for _, addr := range []lang.Addr{v, l1, l2} {
		g.AddDecl(addr)
	}
	if err := g.AddReference(l1, v, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.AddReference(l2, v, nil); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]lang.Addr{l1, l2}, g.Dependents(v)); diff != "" {
		t.Errorf("dependents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]lang.Addr{v}, g.Dependencies(l1)); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if got := g.Dependencies(v); got != nil {
		t.Errorf("variable has unexpected dependencies: %v", got)
	}
}

func TestDOT(t *testing.T) {
	g := New()
	v := lang.VariableAddr("region")
	l := lang.LocalAddr("name")
	g.AddDecl(v)
	g.AddDecl(l)
	if err := g.AddReference(l, v, nil); err != nil {
		t.Fatal(err)
	}

	b, err := g.DOT("decl")
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	for _, want := range []string{"digraph decl", `"var.region"`, `"local.name"`, "->"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}
