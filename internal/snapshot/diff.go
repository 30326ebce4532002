package snapshot

import (
	"sort"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
)

// Change records a package present in both snapshots under a different
// version. Versions are opaque: From and To are unequal, nothing more.
type Change struct {
	Name string
	From string
	To   string
}

// DiffResult classifies the difference between a current and a target
// snapshot. Added holds packages only in the target, Removed packages only
// in the current, Changed packages in both with differing versions. All
// three slices are in ascending name order, and their name-sets are
// pairwise disjoint.
type DiffResult struct {
	Added   []pkgmgr.PackageRecord
	Removed []pkgmgr.PackageRecord
	Changed []Change
}

// Empty reports whether the two snapshots had identical package sets.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two snapshots with a name-keyed join. It is pure: neither
// snapshot is modified, and Diff(A, A) is always empty.
func Diff(current, target *Snapshot) *DiffResult {
	result := &DiffResult{}

	for name, currentRecord := range current.Packages {
		targetRecord, ok := target.Packages[name]
		switch {
		case !ok:
			result.Removed = append(result.Removed, currentRecord)
		case currentRecord.Version != targetRecord.Version:
			result.Changed = append(result.Changed, Change{
				Name: name,
				From: currentRecord.Version,
				To:   targetRecord.Version,
			})
		}
	}

	for name, targetRecord := range target.Packages {
		if _, ok := current.Packages[name]; !ok {
			result.Added = append(result.Added, targetRecord)
		}
	}

	sort.Slice(result.Added, func(i, j int) bool {
		return result.Added[i].Name < result.Added[j].Name
	})
	sort.Slice(result.Removed, func(i, j int) bool {
		return result.Removed[i].Name < result.Removed[j].Name
	})
	sort.Slice(result.Changed, func(i, j int) bool {
		return result.Changed[i].Name < result.Changed[j].Name
	})

	return result
}
