package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/decl/decl/storage"
)

// A Store persists snapshots in a key-value backend.
type Store struct {
	Backend storage.KVBackend
}

func key(module, id string) string {
	return fmt.Sprintf("module/%s/%s", module, id)
}

// Put stores the snapshot.
func (st *Store) Put(ctx context.Context, s *Snap) error {
	b, err := s.Encode()
	if err != nil {
		return err
	}
	if err := st.Backend.Put(ctx, key(s.Module, s.ID), b); err != nil {
		return errors.Wrap(err, "store")
	}
	return nil
}

// Get returns one snapshot. Returns storage.ErrNotFound if the module has
// no snapshot with the given id.
func (st *Store) Get(ctx context.Context, module, id string) (*Snap, error) {
	b, err := st.Backend.Get(ctx, key(module, id))
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Delete removes one snapshot. Returns storage.ErrNotFound if the module
// has no snapshot with the given id.
func (st *Store) Delete(ctx context.Context, module, id string) error {
	return st.Backend.Delete(ctx, key(module, id))
}

// List returns the module's snapshots, oldest first.
func (st *Store) List(ctx context.Context, module string) ([]*Snap, error) {
	values, err := st.Backend.Scan(ctx, "module/"+module)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	snaps := make([]*Snap, 0, len(values))
	for k, v := range values {
		// A plain prefix scan would also match modules whose name extends
		// this one.
		if !strings.HasPrefix(k, "module/"+module+"/") {
			continue
		}
		s, err := Decode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", k)
		}
		snaps = append(snaps, s)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps, nil
}

// Latest returns the most recent snapshot. Returns storage.ErrNotFound if
// the module has none.
func (st *Store) Latest(ctx context.Context, module string) (*Snap, error) {
	snaps, err := st.List(ctx, module)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[len(snaps)-1], nil
}
