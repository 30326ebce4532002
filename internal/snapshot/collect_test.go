package snapshot

import (
	"errors"
	"testing"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
)

// fakeManager implements pkgmgr.Manager over a canned listing.
type fakeManager struct {
	records []pkgmgr.PackageRecord
	listErr error
}

func (f *fakeManager) Kind() pkgmgr.Kind   { return pkgmgr.KindApt }
func (f *fakeManager) DatabaseDir() string { return "/var/lib/dpkg" }

func (f *fakeManager) ListInstalled() ([]pkgmgr.PackageRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeManager) Install(name, version string) error        { return nil }
func (f *fakeManager) Remove(name string) error                  { return nil }
func (f *fakeManager) ChangeVersion(name, from, to string) error { return nil }

func TestCollect(t *testing.T) {
	mgr := &fakeManager{records: []pkgmgr.PackageRecord{
		{Name: "curl", Version: "7.68.0"},
		{Name: "vim", Version: "8.2"},
	}}

	snap, err := Collect(mgr, "host-1", "manual")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snap.ID != 0 {
		t.Errorf("Expected unsaved snapshot ID 0, got %d", snap.ID)
	}

	if snap.HostID != "host-1" {
		t.Errorf("Expected host ID 'host-1', got %q", snap.HostID)
	}

	if len(snap.Packages) != 2 {
		t.Fatalf("Expected 2 packages, got %d", len(snap.Packages))
	}

	if snap.Packages["curl"].Version != "7.68.0" {
		t.Errorf("Unexpected curl record: %+v", snap.Packages["curl"])
	}

	if snap.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestCollectDuplicateNameLastWins(t *testing.T) {
	mgr := &fakeManager{records: []pkgmgr.PackageRecord{
		{Name: "kernel-core", Version: "6.5.6-200"},
		{Name: "curl", Version: "8.2.1"},
		{Name: "kernel-core", Version: "6.5.9-300"},
	}}

	snap, err := Collect(mgr, "host-1", "")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(snap.Packages) != 2 {
		t.Fatalf("Expected 2 packages after dedup, got %d", len(snap.Packages))
	}

	if snap.Packages["kernel-core"].Version != "6.5.9-300" {
		t.Errorf("Expected last occurrence to win, got %q", snap.Packages["kernel-core"].Version)
	}
}

func TestCollectAdapterFailure(t *testing.T) {
	mgr := &fakeManager{listErr: &pkgmgr.AdapterError{ExitCode: 100, Message: "lock held"}}

	snap, err := Collect(mgr, "host-1", "")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if snap != nil {
		t.Error("Expected no partial snapshot on collection failure")
	}

	var collErr *CollectionError
	if !errors.As(err, &collErr) {
		t.Fatalf("Expected CollectionError, got %T", err)
	}

	var adapterErr *pkgmgr.AdapterError
	if !errors.As(err, &adapterErr) {
		t.Error("Expected wrapped AdapterError to be reachable")
	}
}

func TestSnapshotRecordsOrdered(t *testing.T) {
	snap := &Snapshot{Packages: map[string]pkgmgr.PackageRecord{
		"vim":  {Name: "vim", Version: "8.2"},
		"curl": {Name: "curl", Version: "7.68.0"},
		"git":  {Name: "git", Version: "2.30"},
	}}

	records := snap.Records()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	want := []string{"curl", "git", "vim"}
	for i, name := range want {
		if records[i].Name != name {
			t.Errorf("Expected record %d to be %q, got %q", i, name, records[i].Name)
		}
	}
}
