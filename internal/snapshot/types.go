package snapshot

import (
	"sort"
	"time"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
)

// Snapshot is an immutable record of a host's installed package set at one
// point in time. ID is zero until the snapshot has been persisted.
type Snapshot struct {
	ID        int64
	HostID    string
	CreatedAt time.Time
	Reason    string
	Packages  map[string]pkgmgr.PackageRecord
}

// Names returns the package names in ascending order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Packages))
	for name := range s.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns the package records in ascending name order.
func (s *Snapshot) Records() []pkgmgr.PackageRecord {
	records := make([]pkgmgr.PackageRecord, 0, len(s.Packages))
	for _, name := range s.Names() {
		records = append(records, s.Packages[name])
	}
	return records
}

// Summary is the listing view of a stored snapshot.
type Summary struct {
	ID           int64
	HostID       string
	CreatedAt    time.Time
	Reason       string
	PackageCount int
}
