package eval

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/decl/decl/lang"
)

// resourceMetaArgs are consumed by the resource decoder. They reappear when
// walking the raw syntax body, so the walkers skip them at the top level.
var resourceMetaArgs = map[string]bool{
	"count":      true,
	"for_each":   true,
	"depends_on": true,
}

// resourceReferences collects every reference a resource makes: expansion
// drivers, explicit depends_on entries and all expressions in the body.
func resourceReferences(r *lang.Resource) ([]*lang.Reference, hcl.Diagnostics) {
	var refs []*lang.Reference
	var diags hcl.Diagnostics

	if r.Count != nil {
		more, moreDiags := lang.References(r.Count)
		refs = append(refs, more...)
		diags = append(diags, moreDiags...)
	}
	if r.ForEach != nil {
		more, moreDiags := lang.References(r.ForEach)
		refs = append(refs, more...)
		diags = append(diags, moreDiags...)
	}
	refs = append(refs, r.DependsOn...)

	body, ok := r.Config.(*hclsyntax.Body)
	if !ok {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported resource body",
			Detail:   fmt.Sprintf("The body of %s does not use native syntax and cannot be analyzed.", r.Addr()),
			Subject:  r.DeclRange.Ptr(),
		})
		return refs, diags
	}
	more, moreDiags := bodyReferences(body, true)
	refs = append(refs, more...)
	diags = append(diags, moreDiags...)

	return refs, diags
}

func bodyReferences(body *hclsyntax.Body, top bool) ([]*lang.Reference, hcl.Diagnostics) {
	var refs []*lang.Reference
	var diags hcl.Diagnostics

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if top && resourceMetaArgs[name] {
			continue
		}
		more, moreDiags := lang.References(body.Attributes[name].Expr)
		refs = append(refs, more...)
		diags = append(diags, moreDiags...)
	}
	for _, block := range body.Blocks {
		more, moreDiags := bodyReferences(block.Body, false)
		refs = append(refs, more...)
		diags = append(diags, moreDiags...)
	}

	return refs, diags
}

// checkRef verifies that a reference points at a declared address,
// suggesting a close match when it does not.
func checkRef(mod *lang.Module, ref *lang.Reference) hcl.Diagnostics {
	if mod.HasDecl(ref.Subject) {
		return nil
	}

	var noun string
	switch ref.Subject.Kind {
	case lang.AddrVariable:
		noun = "variable"
	case lang.AddrLocal:
		noun = "local value"
	default:
		noun = "resource"
	}
	detail := fmt.Sprintf("A %s named %q has not been declared.", noun, ref.Subject)
	if s := lang.SuggestAddr(ref.Subject, mod.Referenceable()); s != "" {
		detail += fmt.Sprintf(" Did you mean %q?", s)
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Reference to undeclared %s", noun),
		Detail:   detail,
		Subject:  ref.SourceRange.Ptr(),
	}}
}
