package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgsnap/internal/output"
)

var snapshotFlagReason string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the host's installed package set",
	Long: `Query the package manager for every installed package and store the
result as a new snapshot for this host. Snapshots are immutable; create
a new one whenever you want a restore point.`,
	Example: `  pkgsnap snapshot
  pkgsnap snapshot --reason "before kernel upgrade"`,
	RunE: runSnapshot,
}

var listFlagAllHosts bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Example: `  pkgsnap list
  pkgsnap list --all-hosts`,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <snapshot-id>",
	Short: "Show the packages recorded in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteFlagYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <snapshot-id>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotFlagReason, "reason", "manual", "why this snapshot was taken")
	listCmd.Flags().BoolVar(&listFlagAllHosts, "all-hosts", false, "list snapshots from every host in the database")
	deleteCmd.Flags().BoolVar(&deleteFlagYes, "yes", false, "skip confirmation prompt")

	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(deleteCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := e.svc.CreateSnapshot(e.hostName, snapshotFlagReason)
	if err != nil {
		return err
	}

	fmt.Printf("Created snapshot %d with %d packages.\n", snap.ID, len(snap.Packages))
	fmt.Printf("\nCompare later with: pkgsnap diff %d <other-id>\n", snap.ID)
	fmt.Printf("Restore with:       pkgsnap restore %d\n", snap.ID)

	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	hostID := ""
	if !listFlagAllHosts {
		host, err := e.currentHost()
		if err != nil {
			return err
		}
		hostID = host.ID
	}

	summaries, err := e.store.ListSnapshots(hostID)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No snapshots yet.")
		fmt.Println("\nCreate one with: pkgsnap snapshot")
		return nil
	}

	fmt.Print(output.RenderSnapshotTable(summaries))
	fmt.Printf("\nInspect with: pkgsnap show <id>\n")

	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseSnapshotID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := e.store.GetSnapshot(id)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot %d\n", snap.ID)
	fmt.Printf("  Host:     %s\n", snap.HostID)
	fmt.Printf("  Created:  %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Reason:   %s\n", snap.Reason)
	fmt.Printf("  Packages: %d\n\n", len(snap.Packages))
	fmt.Print(output.RenderPackageTable(snap))

	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseSnapshotID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if !deleteFlagYes {
		if !confirm(fmt.Sprintf("Delete snapshot %d?", id)) {
			fmt.Println("Deletion cancelled.")
			return nil
		}
	}

	if err := e.store.DeleteSnapshot(id); err != nil {
		return err
	}

	fmt.Printf("Deleted snapshot %d.\n", id)
	return nil
}

func parseSnapshotID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot ID: %s (must be a number)", arg)
	}
	return id, nil
}
