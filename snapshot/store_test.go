package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/decl/decl/storage"
	"github.com/decl/decl/storage/memkv"
)

// snapAt builds a snapshot with an id derived from the given time, so
// tests control the ordering ksuids normally get from the clock.
func snapAt(t *testing.T, module string, tm time.Time) *Snap {
	t.Helper()
	id, err := ksuid.FromParts(tm, make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}
	return &Snap{ID: id.String(), Module: module, Taken: tm.UTC()}
}

func TestStore(t *testing.T) {
	st := &Store{Backend: &memkv.Store{}}
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	first := snapAt(t, "demo", base)
	second := snapAt(t, "demo", base.Add(time.Minute))
	third := snapAt(t, "demo", base.Add(2*time.Minute))
	other := snapAt(t, "other", base)

	// Out of order on purpose; List must sort by id.
	for _, s := range []*Snap{second, other, third, first} {
		if err := st.Put(ctx, s); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	snaps, err := st.List(ctx, "demo")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("List() returned %d snapshots, want 3", len(snaps))
	}
	for i, want := range []*Snap{first, second, third} {
		if snaps[i].ID != want.ID {
			t.Errorf("snaps[%d].ID = %s, want %s", i, snaps[i].ID, want.ID)
		}
	}

	latest, err := st.Latest(ctx, "demo")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != third.ID {
		t.Errorf("Latest() = %s, want %s", latest.ID, third.ID)
	}

	got, err := st.Get(ctx, "demo", first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("Get() (-put +got)\n%s", diff)
	}

	if err := st.Delete(ctx, "demo", second.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := st.Get(ctx, "demo", second.ID); errors.Cause(err) != storage.ErrNotFound {
		t.Errorf("Get() deleted snapshot; want %v, got %v", storage.ErrNotFound, err)
	}
	snaps, err = st.List(ctx, "demo")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("List() after delete returned %d snapshots, want 2", len(snaps))
	}
}

func TestStoreLatestEmpty(t *testing.T) {
	st := &Store{Backend: &memkv.Store{}}
	_, err := st.Latest(context.Background(), "demo")
	if errors.Cause(err) != storage.ErrNotFound {
		t.Errorf("Latest() on empty store; want %v, got %v", storage.ErrNotFound, err)
	}
}
