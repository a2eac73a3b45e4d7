// Package snapshot records the results of an evaluation so they can be
// stored, listed and compared later.
//
// A snapshot carries every evaluated resource and output together with its
// type, so stored values decode without the declaring configuration at
// hand. Sensitive values are stored unmarked with a flag; redaction is the
// renderer's job.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/decl/decl/ctyext"
	"github.com/decl/decl/eval"
)

// An Entry is one recorded value, encoded together with its type.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	Type      json.RawMessage `json:"type"`
	Sensitive bool            `json:"sensitive,omitempty"`
}

// A Snap records one evaluation of a module.
//
// The ID is a ksuid, so the IDs of a module's snapshots sort by creation
// time.
type Snap struct {
	ID        string           `json:"id"`
	Module    string           `json:"module"`
	Taken     time.Time        `json:"taken"`
	Resources map[string]Entry `json:"resources,omitempty"`
	Outputs   map[string]Entry `json:"outputs,omitempty"`
}

// Take records the evaluated resources and outputs of the named module.
func Take(module string, res *eval.Result) (*Snap, error) {
	s := &Snap{
		ID:     ksuid.New().String(),
		Module: module,
		Taken:  time.Now().UTC(),
	}

	if len(res.Resources) > 0 {
		s.Resources = make(map[string]Entry, len(res.Resources))
		for addr, val := range res.Resources {
			e, err := newEntry(val, false)
			if err != nil {
				return nil, errors.Wrapf(err, "encode %s", addr)
			}
			s.Resources[addr] = e
		}
	}

	if len(res.Outputs) > 0 {
		s.Outputs = make(map[string]Entry, len(res.Outputs))
		for name, out := range res.Outputs {
			e, err := newEntry(out.Value, out.Sensitive)
			if err != nil {
				return nil, errors.Wrapf(err, "encode output.%s", name)
			}
			s.Outputs[name] = e
		}
	}

	return s, nil
}

func newEntry(val cty.Value, sensitive bool) (Entry, error) {
	raw, marked := ctyext.Declassify(val)
	ty := raw.Type()
	value, err := ctyjson.Marshal(raw, ty)
	if err != nil {
		return Entry{}, errors.Wrap(err, "marshal value")
	}
	tyJSON, err := ctyjson.MarshalType(ty)
	if err != nil {
		return Entry{}, errors.Wrap(err, "marshal type")
	}
	return Entry{Value: value, Type: tyJSON, Sensitive: sensitive || marked}, nil
}

// Decode returns the recorded value. The value carries no marks even when
// the entry is flagged sensitive.
func (e Entry) Decode() (cty.Value, error) {
	ty, err := ctyjson.UnmarshalType(e.Type)
	if err != nil {
		return cty.NilVal, errors.Wrap(err, "unmarshal type")
	}
	val, err := ctyjson.Unmarshal(e.Value, ty)
	if err != nil {
		return cty.NilVal, errors.Wrap(err, "unmarshal value")
	}
	return val, nil
}

// Encode marshals the snapshot for storage.
func (s *Snap) Encode() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return b, nil
}

// Decode unmarshals a stored snapshot.
func Decode(b []byte) (*Snap, error) {
	s := &Snap{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return s, nil
}

// entries merges resources and outputs into one address-keyed map.
func (s *Snap) entries() map[string]Entry {
	out := make(map[string]Entry, len(s.Resources)+len(s.Outputs))
	for addr, e := range s.Resources {
		out[addr] = e
	}
	for name, e := range s.Outputs {
		out["output."+name] = e
	}
	return out
}
