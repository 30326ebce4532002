package store

import "github.com/blackwell-systems/pkgsnap/internal/pkgmgr"

// Host identifies one machine whose snapshots this database holds.
type Host struct {
	ID   string
	Name string
	OS   pkgmgr.Kind
}
