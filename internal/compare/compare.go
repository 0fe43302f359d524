// Package compare reports how a database file changed between two versions.
package compare

import (
	"sort"
	"strings"

	"questdb/internal/merge"
)

// Stats counts the records of one file.
type Stats struct {
	Total        int
	Placeholders int
	Real         int
}

// Count classifies every record of c as placeholder or real.
func Count(c *merge.Collection, policy merge.Policy) Stats {
	var s Stats
	for _, e := range c.Entries {
		s.Total++
		if policy.IsPlaceholder(e.Name) {
			s.Placeholders++
		} else {
			s.Real++
		}
	}
	return s
}

// Rename is a record whose name differs between versions.
type Rename struct {
	ID  int
	Old string
	New string
}

// Result is the difference between two versions of a file.
type Result struct {
	OldPath string
	NewPath string
	Old     Stats
	New     Stats
	Added   []int
	Removed []int
	// Filled lists placeholders that received a real name.
	Filled []Rename
	// Renamed lists every other name change.
	Renamed []Rename
}

// Compare diffs two versions of a database by id.
func Compare(old, cur *merge.Collection, policy merge.Policy) *Result {
	res := &Result{
		OldPath: old.Path,
		NewPath: cur.Path,
		Old:     Count(old, policy),
		New:     Count(cur, policy),
	}

	for _, id := range cur.IDs() {
		e := cur.Entries[id]
		prev, ok := old.Entries[id]
		if !ok {
			res.Added = append(res.Added, id)
			continue
		}
		if strings.EqualFold(prev.Name, e.Name) {
			continue
		}
		r := Rename{ID: id, Old: prev.Name, New: e.Name}
		if policy.IsPlaceholder(prev.Name) && !policy.IsPlaceholder(e.Name) {
			res.Filled = append(res.Filled, r)
		} else {
			res.Renamed = append(res.Renamed, r)
		}
	}

	for id := range old.Entries {
		if _, ok := cur.Entries[id]; !ok {
			res.Removed = append(res.Removed, id)
		}
	}
	sort.Ints(res.Removed)

	return res
}

// Changed reports whether the versions differ in any record.
func (r *Result) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Filled)+len(r.Renamed) > 0
}
