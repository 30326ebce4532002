// Package watcher observes the package manager's own database directory
// and captures a snapshot whenever the installed set changes, so hosts get
// an automatic history between manual snapshots.
package watcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/service"
)

// defaultSettle is how long the package database must stay quiet before a
// snapshot is taken. Package manager transactions touch many files in a
// burst; snapshotting mid-transaction would capture a half-applied set.
const defaultSettle = 30 * time.Second

// Watcher snapshots a host when its package database changes.
type Watcher struct {
	svc      *service.Service
	mgr      pkgmgr.Manager
	hostName string
	settle   time.Duration
	log      zerolog.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher. The zero settle duration selects the default.
func New(svc *service.Service, mgr pkgmgr.Manager, hostName string, settle time.Duration, log zerolog.Logger) (*Watcher, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Watcher{
		svc:      svc,
		mgr:      mgr,
		hostName: hostName,
		settle:   settle,
		log:      log,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the package database directory. It returns once
// the watch is established; snapshotting happens on a background goroutine
// until Stop is called.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := w.mgr.DatabaseDir()
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.fsw = fsw
	w.log.Info().Str("dir", dir).Dur("settle", w.settle).Msg("watching package database")

	w.wg.Add(1)
	go w.run()

	return nil
}

// Stop stops watching and waits for the background goroutine to exit. Any
// snapshot already being taken completes first.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	// The timer is armed on the first event and re-armed on every
	// subsequent one, so the snapshot fires one settle period after the
	// burst ends.
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("package database activity")
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.settle)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("file watcher error")

		case <-timer.C:
			w.capture()
		}
	}
}

func (w *Watcher) capture() {
	snap, created, err := w.svc.CreateSnapshotIfChanged(w.hostName, "package database changed")
	if err != nil {
		w.log.Error().Err(err).Msg("automatic snapshot failed")
		return
	}
	if !created {
		w.log.Debug().Msg("package set unchanged, no snapshot taken")
		return
	}
	w.log.Info().Int64("snapshot", snap.ID).Int("packages", len(snap.Packages)).
		Msg("automatic snapshot created")
}
