package lang

import "fmt"

// AddrKind enumerates the kinds of declarations that can be referenced.
type AddrKind int

// Address kinds.
const (
	AddrInvalid AddrKind = iota
	AddrVariable
	AddrLocal
	AddrResource
	AddrOutput
)

// An Addr identifies a single declaration within a module.
//
// The string form matches how the declaration is referenced in
// configuration: var.NAME, local.NAME and TYPE.NAME for resources. Outputs
// cannot be referenced by expressions but still occupy an address
// (output.NAME) so they can participate in the reference graph.
type Addr struct {
	Kind AddrKind

	// Type is the resource type tag. Empty unless Kind is AddrResource.
	Type string

	// Name is the declaration's own name.
	Name string
}

// VariableAddr returns the address of the variable with the given name.
func VariableAddr(name string) Addr { return Addr{Kind: AddrVariable, Name: name} }

// LocalAddr returns the address of the local value with the given name.
func LocalAddr(name string) Addr { return Addr{Kind: AddrLocal, Name: name} }

// ResourceAddr returns the address of a resource declaration.
func ResourceAddr(typ, name string) Addr { return Addr{Kind: AddrResource, Type: typ, Name: name} }

// OutputAddr returns the address of the output with the given name.
func OutputAddr(name string) Addr { return Addr{Kind: AddrOutput, Name: name} }

func (a Addr) String() string {
	switch a.Kind {
	case AddrVariable:
		return "var." + a.Name
	case AddrLocal:
		return "local." + a.Name
	case AddrResource:
		return a.Type + "." + a.Name
	case AddrOutput:
		return "output." + a.Name
	default:
		return fmt.Sprintf("invalid(%s)", a.Name)
	}
}
