package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgsnap/internal/output"
	"github.com/blackwell-systems/pkgsnap/internal/restore"
)

var (
	restoreFlagAbort  bool
	restoreFlagDryRun bool
	restoreFlagYes    bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Reconcile the host back to a snapshot",
	Long: `Compute the minimal ordered set of operations (removals first, then
installs, then version changes) that brings the live host back to the
given snapshot, and apply it via the package manager.

A snapshot of the current state is saved before anything runs, so the
restore itself can be undone. Each operation is reported individually;
by default a failed operation does not stop the rest. Operations whose
outcome is already in place are skipped, which makes retrying a
partially failed restore safe.`,
	Example: `  pkgsnap restore 3
  pkgsnap restore 3 --dry-run
  pkgsnap restore 3 --abort-on-error --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreFlagAbort, "abort-on-error", false, "stop at the first failed operation")
	restoreCmd.Flags().BoolVar(&restoreFlagDryRun, "dry-run", false, "print the plan without executing it")
	restoreCmd.Flags().BoolVar(&restoreFlagYes, "yes", false, "skip confirmation prompt")

	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	id, err := parseSnapshotID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	plan, err := e.svc.PlanRestore(id)
	if err != nil {
		return err
	}

	fmt.Printf("Restore plan for snapshot %d:\n\n", id)
	fmt.Print(output.RenderPlan(plan))

	if restoreFlagDryRun || len(plan) == 0 {
		return nil
	}

	if !restoreFlagYes {
		if !confirm(fmt.Sprintf("\nApply %d operations?", len(plan))) {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	policy := restore.ContinueOnError
	if restoreFlagAbort {
		policy = restore.AbortOnError
	}

	// Ctrl-C stops between operations; the in-flight package manager call
	// always runs to completion.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("\nApplying...")
	report, err := e.svc.RestoreTo(ctx, id, policy)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(output.RenderReport(report))

	if report.Overall != restore.OverallSuccess {
		fmt.Fprintln(os.Stderr, "\nRetry failed operations by re-running the same restore;")
		fmt.Fprintln(os.Stderr, "operations already in place will be skipped.")
	}

	return nil
}

// confirm prompts on stdin and accepts y/yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
