package app

import (
	"fmt"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/service"
	"github.com/blackwell-systems/pkgsnap/internal/store"
)

// env bundles everything a command needs: the open store, the detected
// package manager, and the service wired over both.
type env struct {
	store    *store.Store
	mgr      pkgmgr.Manager
	svc      *service.Service
	hostName string
}

// openEnv detects the host's package manager and opens the snapshot
// database. Callers must Close the env when done.
func openEnv() (*env, error) {
	kind, err := pkgmgr.Detect()
	if err != nil {
		return nil, fmt.Errorf("failed to detect package manager: %w", err)
	}

	mgr, err := pkgmgr.New(kind)
	if err != nil {
		return nil, err
	}

	hostName, err := pkgmgr.Hostname()
	if err != nil {
		return nil, err
	}

	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &env{
		store:    st,
		mgr:      mgr,
		svc:      service.New(st, mgr),
		hostName: hostName,
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// currentHost returns this host's registration, creating it on first use.
func (e *env) currentHost() (*store.Host, error) {
	return e.store.GetOrCreateHost(e.hostName, e.mgr.Kind())
}
