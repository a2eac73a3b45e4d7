package snapshot

import (
	"bytes"
	"sort"
)

// Changes lists the addresses that differ between two snapshots. Outputs
// appear with an output. prefix so they cannot collide with resource
// addresses.
type Changes struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the two snapshots were identical.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Diff compares two snapshots address by address. Values compare by their
// canonical encoding, so a change in value, type or sensitivity all count
// as a change.
func Diff(old, new *Snap) Changes {
	oldEntries := old.entries()
	newEntries := new.entries()

	var c Changes
	for addr, oe := range oldEntries {
		ne, ok := newEntries[addr]
		if !ok {
			c.Removed = append(c.Removed, addr)
			continue
		}
		if !bytes.Equal(oe.Value, ne.Value) || !bytes.Equal(oe.Type, ne.Type) || oe.Sensitive != ne.Sensitive {
			c.Changed = append(c.Changed, addr)
		}
	}
	for addr := range newEntries {
		if _, ok := oldEntries[addr]; !ok {
			c.Added = append(c.Added, addr)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Removed)
	sort.Strings(c.Changed)
	return c
}
