package snapshot

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
)

// CollectionError means the installed-package listing could not be taken.
// It is fatal to snapshot creation: no partial snapshot is ever produced.
type CollectionError struct {
	Err error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("failed to collect installed packages: %v", e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// Collect queries the package manager and builds a snapshot of the host's
// current package set. If a name appears more than once in the raw listing
// (e.g. multiple installed kernels), the last occurrence wins.
func Collect(mgr pkgmgr.Manager, hostID, reason string) (*Snapshot, error) {
	records, err := mgr.ListInstalled()
	if err != nil {
		return nil, &CollectionError{Err: err}
	}

	packages := make(map[string]pkgmgr.PackageRecord, len(records))
	for _, record := range records {
		packages[record.Name] = record
	}

	return &Snapshot{
		HostID:    hostID,
		CreatedAt: time.Now().UTC(),
		Reason:    reason,
		Packages:  packages,
	}, nil
}
