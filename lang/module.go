package lang

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/decl/decl/suggest"
)

// A Module is the decoded model of one configuration directory.
//
// All declarations share a single flat namespace per kind, regardless of
// which file they came from. Resources are keyed by their TYPE.NAME address
// so two types may reuse the same name.
type Module struct {
	Variables map[string]*Variable
	Locals    map[string]*Local
	Resources map[string]*Resource
	Outputs   map[string]*Output
}

// Top-level block vocabulary, for suggestions on typos.
var topLevelBlockTypes = []string{"locals", "output", "resource", "variable"}

// DecodeModule builds a module from already-parsed files.
//
// Files must come from the native syntax parser. Declaration order inside a
// file is preserved where it matters (validation rules), but cross-file
// order carries no meaning, so callers should still pass files in a
// deterministic order to keep diagnostics stable.
func DecodeModule(files []*hcl.File) (*Module, hcl.Diagnostics) {
	m := &Module{
		Variables: map[string]*Variable{},
		Locals:    map[string]*Local{},
		Resources: map[string]*Resource{},
		Outputs:   map[string]*Output{},
	}
	var diags hcl.Diagnostics

	for _, f := range files {
		body, ok := f.Body.(*hclsyntax.Body)
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported file format",
				Detail:   "Configuration files must use native HCL syntax.",
				Subject:  f.Body.MissingItemRange().Ptr(),
			})
			continue
		}
		diags = append(diags, m.appendFile(body)...)
	}

	return m, diags
}

func (m *Module) appendFile(body *hclsyntax.Body) hcl.Diagnostics {
	var diags hcl.Diagnostics

	attrNames := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected top-level attribute",
			Detail:   fmt.Sprintf("An attribute named %q is not allowed at the top level of a file. To declare a named value, put it inside a locals block.", name),
			Subject:  body.Attributes[name].NameRange.Ptr(),
		})
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "variable":
			if !wantLabels(block, 1, "name", &diags) {
				continue
			}
			v, moreDiags := decodeVariableBlock(block.AsHCLBlock())
			diags = append(diags, moreDiags...)
			if v == nil {
				continue
			}
			if prev, exists := m.Variables[v.Name]; exists {
				diags = append(diags, dupDiag("variable", v.Name, prev.DeclRange, v.DeclRange))
				continue
			}
			m.Variables[v.Name] = v

		case "locals":
			if !wantLabels(block, 0, "", &diags) {
				continue
			}
			locals, moreDiags := decodeLocalsBlock(block.AsHCLBlock())
			diags = append(diags, moreDiags...)
			for _, l := range locals {
				if prev, exists := m.Locals[l.Name]; exists {
					diags = append(diags, dupDiag("local value", l.Name, prev.DeclRange, l.DeclRange))
					continue
				}
				m.Locals[l.Name] = l
			}

		case "resource":
			if !wantLabels(block, 2, "type and name", &diags) {
				continue
			}
			r, moreDiags := decodeResourceBlock(block.AsHCLBlock())
			diags = append(diags, moreDiags...)
			if r == nil {
				continue
			}
			key := r.Addr().String()
			if prev, exists := m.Resources[key]; exists {
				diags = append(diags, dupDiag("resource", key, prev.DeclRange, r.DeclRange))
				continue
			}
			m.Resources[key] = r

		case "output":
			if !wantLabels(block, 1, "name", &diags) {
				continue
			}
			o, moreDiags := decodeOutputBlock(block.AsHCLBlock())
			diags = append(diags, moreDiags...)
			if o == nil {
				continue
			}
			if prev, exists := m.Outputs[o.Name]; exists {
				diags = append(diags, dupDiag("output", o.Name, prev.DeclRange, o.DeclRange))
				continue
			}
			m.Outputs[o.Name] = o

		default:
			detail := fmt.Sprintf("Blocks of type %q are not expected here.", block.Type)
			if s := suggest.String(block.Type, topLevelBlockTypes); s != "" {
				detail += fmt.Sprintf(" Did you mean %q?", s)
			}
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported block type",
				Detail:   detail,
				Subject:  block.TypeRange.Ptr(),
			})
		}
	}

	return diags
}

func wantLabels(block *hclsyntax.Block, n int, noun string, diags *hcl.Diagnostics) bool {
	if len(block.Labels) == n {
		return true
	}
	if len(block.Labels) < n {
		*diags = append(*diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Missing %s for %s", noun, block.Type),
			Detail:   fmt.Sprintf("A %s block needs %s label(s) in quotes after the block type.", block.Type, noun),
			Subject:  block.TypeRange.Ptr(),
		})
		return false
	}
	*diags = append(*diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Extraneous label for %s", block.Type),
		Detail:   fmt.Sprintf("Only %d label(s) are expected for %s blocks.", n, block.Type),
		Subject:  block.LabelRanges[n].Ptr(),
	})
	return false
}

func dupDiag(noun, name string, prev, dup hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Duplicate %s declaration", noun),
		Detail:   fmt.Sprintf("A %s named %q was already declared at %s.", noun, name, prev),
		Subject:  dup.Ptr(),
	}
}

// Referenceable returns the addresses expressions may refer to, sorted by
// their string form. Suggestion rendering relies on the stable order.
func (m *Module) Referenceable() []Addr {
	addrs := make([]Addr, 0, len(m.Variables)+len(m.Locals)+len(m.Resources))
	for name := range m.Variables {
		addrs = append(addrs, VariableAddr(name))
	}
	for name := range m.Locals {
		addrs = append(addrs, LocalAddr(name))
	}
	for _, r := range m.Resources {
		addrs = append(addrs, r.Addr())
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })
	return addrs
}

// HasDecl reports whether the module declares the given address.
func (m *Module) HasDecl(addr Addr) bool {
	switch addr.Kind {
	case AddrVariable:
		_, ok := m.Variables[addr.Name]
		return ok
	case AddrLocal:
		_, ok := m.Locals[addr.Name]
		return ok
	case AddrResource:
		_, ok := m.Resources[addr.String()]
		return ok
	case AddrOutput:
		_, ok := m.Outputs[addr.Name]
		return ok
	default:
		return false
	}
}
