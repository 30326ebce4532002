package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgsnap/internal/output"
)

var diffCmd = &cobra.Command{
	Use:   "diff <current-id> <target-id>",
	Short: "Compare two stored snapshots",
	Long: `Compare two snapshots and classify every package as added, removed, or
changed. The comparison is directional: the first snapshot is treated as
the current state, the second as the target.`,
	Example: `  pkgsnap diff 3 7`,
	Args:    cobra.ExactArgs(2),
	RunE:    runDiff,
}

func init() {
	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	currentID, err := parseSnapshotID(args[0])
	if err != nil {
		return err
	}
	targetID, err := parseSnapshotID(args[1])
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	diff, err := e.svc.Diff(currentID, targetID)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot %d -> %d\n\n", currentID, targetID)
	fmt.Print(output.RenderDiff(diff))

	return nil
}
