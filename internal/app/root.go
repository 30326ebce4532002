package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath string

	// RootCmd is the root command for pkgsnap
	RootCmd = &cobra.Command{
		Use:   "pkgsnap",
		Short: "Snapshot, diff, and restore a host's installed package set",
		Long: `pkgsnap records the set of packages installed on a host (apt or dnf),
stores those snapshots locally, compares any two of them, and can
reconcile the live host back to a chosen snapshot with a minimal,
ordered sequence of package operations.

Restores are not transactions: each operation is applied one at a time
and reported individually, so a partial failure tells you exactly which
packages need attention.

Quick Start:
  1. pkgsnap snapshot --reason "baseline"
  2. ...install, remove, upgrade things...
  3. pkgsnap list
  4. pkgsnap diff <old-id> <new-id>
  5. pkgsnap restore <old-id>

Examples:
  # Capture the current package set
  pkgsnap snapshot --reason "before upgrade"

  # Compare two snapshots
  pkgsnap diff 3 7

  # See what a restore would do without touching the host
  pkgsnap restore 3 --dry-run

  # Snapshot automatically whenever the package database changes
  pkgsnap watch --daemon`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("pkgsnap: package set snapshots with diff and restore")
			fmt.Println()
			fmt.Println("Run 'pkgsnap snapshot' to capture the current package set.")
			fmt.Println("Run 'pkgsnap --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.pkgsnap/pkgsnap.db)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := pkgsnapDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pkgsnap.db"), nil
}

// getDefaultPIDFile returns the default watch daemon PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := pkgsnapDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default watch daemon log file path
func getDefaultLogFile() (string, error) {
	dir, err := pkgsnapDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}

// pkgsnapDir returns ~/.pkgsnap, creating it if needed.
func pkgsnapDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".pkgsnap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create pkgsnap directory: %w", err)
	}

	return dir, nil
}
