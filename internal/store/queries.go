package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/snapshot"
)

// Host operations

// GetOrCreateHost returns the host registered under name, creating it with
// a fresh ID on first sight.
func (s *Store) GetOrCreateHost(name string, osType pkgmgr.Kind) (*Host, error) {
	host := &Host{Name: name, OS: osType}

	err := s.db.QueryRow(`SELECT id, os_type FROM hosts WHERE name = ?`, name).
		Scan(&host.ID, &host.OS)
	if err == nil {
		return host, nil
	}
	if err != sql.ErrNoRows {
		return nil, &PersistenceError{Op: "look up host " + name, Err: err}
	}

	host.ID = uuid.NewString()
	host.OS = osType
	_, err = s.db.Exec(`INSERT INTO hosts (id, name, os_type) VALUES (?, ?, ?)`,
		host.ID, host.Name, string(host.OS))
	if err != nil {
		return nil, &PersistenceError{Op: "register host " + name, Err: err}
	}

	return host, nil
}

// GetHost retrieves a host by ID.
func (s *Store) GetHost(id string) (*Host, error) {
	host := &Host{ID: id}
	err := s.db.QueryRow(`SELECT name, os_type FROM hosts WHERE id = ?`, id).
		Scan(&host.Name, &host.OS)
	if err == sql.ErrNoRows {
		return nil, &PersistenceError{Op: "get host", Err: fmt.Errorf("host %s not found", id)}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get host " + id, Err: err}
	}
	return host, nil
}

// Snapshot operations

// SaveSnapshot persists a snapshot and its package set in one transaction
// and returns the assigned ID. The snapshot itself is not modified.
func (s *Store) SaveSnapshot(snap *snapshot.Snapshot) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, &PersistenceError{Op: "begin save", Err: err}
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO snapshots (host_id, created_at, reason, package_count)
		VALUES (?, ?, ?, ?)`,
		snap.HostID,
		snap.CreatedAt.Format(time.RFC3339),
		snap.Reason,
		len(snap.Packages),
	)
	if err != nil {
		return 0, &PersistenceError{Op: "insert snapshot", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "read snapshot ID", Err: err}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_packages (snapshot_id, name, version)
		VALUES (?, ?, ?)`)
	if err != nil {
		return 0, &PersistenceError{Op: "prepare package insert", Err: err}
	}
	defer stmt.Close()

	for _, record := range snap.Records() {
		if _, err := stmt.Exec(id, record.Name, record.Version); err != nil {
			return 0, &PersistenceError{Op: "insert snapshot package " + record.Name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit save", Err: err}
	}

	return id, nil
}

// GetSnapshot reconstructs a stored snapshot by ID.
func (s *Store) GetSnapshot(id int64) (*snapshot.Snapshot, error) {
	snap := &snapshot.Snapshot{ID: id}
	var createdAt string

	err := s.db.QueryRow(`
		SELECT host_id, created_at, reason FROM snapshots WHERE id = ?`, id).
		Scan(&snap.HostID, &createdAt, &snap.Reason)
	if err == sql.ErrNoRows {
		return nil, &PersistenceError{Op: "get snapshot", Err: fmt.Errorf("snapshot %d not found", id)}
	}
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("get snapshot %d", id), Err: err}
	}

	snap.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("parse created_at for snapshot %d", id), Err: err}
	}

	rows, err := s.db.Query(`
		SELECT name, version FROM snapshot_packages WHERE snapshot_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("load packages for snapshot %d", id), Err: err}
	}
	defer rows.Close()

	snap.Packages = make(map[string]pkgmgr.PackageRecord)
	for rows.Next() {
		var record pkgmgr.PackageRecord
		if err := rows.Scan(&record.Name, &record.Version); err != nil {
			return nil, &PersistenceError{Op: "scan snapshot package", Err: err}
		}
		snap.Packages[record.Name] = record
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "iterate snapshot packages", Err: err}
	}

	return snap, nil
}

// ListSnapshots returns summaries ordered newest first. An empty hostID
// lists snapshots for every host.
func (s *Store) ListSnapshots(hostID string) ([]*snapshot.Summary, error) {
	query := `
		SELECT id, host_id, created_at, reason, package_count
		FROM snapshots`
	args := []any{}
	if hostID != "" {
		query += ` WHERE host_id = ?`
		args = append(args, hostID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "list snapshots", Err: err}
	}
	defer rows.Close()

	var summaries []*snapshot.Summary
	for rows.Next() {
		var summary snapshot.Summary
		var createdAt string

		if err := rows.Scan(&summary.ID, &summary.HostID, &createdAt,
			&summary.Reason, &summary.PackageCount); err != nil {
			return nil, &PersistenceError{Op: "scan snapshot row", Err: err}
		}

		summary.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, &PersistenceError{
				Op:  fmt.Sprintf("parse created_at for snapshot %d", summary.ID),
				Err: err,
			}
		}

		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "iterate snapshots", Err: err}
	}

	return summaries, nil
}

// DeleteSnapshot removes a snapshot and its package rows.
func (s *Store) DeleteSnapshot(id int64) error {
	result, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: fmt.Sprintf("delete snapshot %d", id), Err: err}
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "read rows affected", Err: err}
	}
	if rows == 0 {
		return &PersistenceError{Op: "delete snapshot", Err: fmt.Errorf("snapshot %d not found", id)}
	}

	return nil
}
