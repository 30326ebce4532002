package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgsnap/internal/watcher"
)

var (
	watchFlagDaemon      bool
	watchFlagDaemonChild bool
	watchFlagStop        bool
	watchFlagStatus      bool
	watchFlagSettle      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Snapshot automatically when the package database changes",
	Long: `Watch the package manager's database directory and create a snapshot
whenever the installed set changes. Runs in the foreground by default;
use --daemon to run in the background.`,
	Example: `  pkgsnap watch
  pkgsnap watch --daemon
  pkgsnap watch --status
  pkgsnap watch --stop`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchFlagDaemon, "daemon", false, "run in the background")
	watchCmd.Flags().BoolVar(&watchFlagDaemonChild, "daemon-child", false, "internal: run as the daemon child process")
	watchCmd.Flags().BoolVar(&watchFlagStop, "stop", false, "stop the running daemon")
	watchCmd.Flags().BoolVar(&watchFlagStatus, "status", false, "report whether the daemon is running")
	watchCmd.Flags().DurationVar(&watchFlagSettle, "settle", 0, "quiet period before snapshotting (default 30s)")
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	pidFile, err := getDefaultPIDFile()
	if err != nil {
		return err
	}

	if watchFlagStatus {
		running, err := watcher.IsDaemonRunning(pidFile)
		if err != nil {
			return err
		}
		if running {
			fmt.Println("Watch daemon is running.")
		} else {
			fmt.Println("Watch daemon is not running.")
		}
		return nil
	}

	if watchFlagStop {
		if err := watcher.StopDaemon(pidFile); err != nil {
			return err
		}
		fmt.Println("Watch daemon stopped.")
		return nil
	}

	if watchFlagDaemon {
		logFile, err := getDefaultLogFile()
		if err != nil {
			return err
		}
		if err := watcher.StartDaemon(pidFile, logFile); err != nil {
			return err
		}
		fmt.Printf("Watch daemon started (log: %s).\n", logFile)
		return nil
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	w, err := watcher.New(e.svc, e.mgr, e.hostName, watchFlagSettle, log)
	if err != nil {
		return err
	}

	if watchFlagDaemonChild {
		return w.RunDaemon(pidFile)
	}

	if err := w.Start(); err != nil {
		return err
	}

	fmt.Printf("Watching %s. Press Ctrl-C to stop.\n", e.mgr.DatabaseDir())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return w.Stop()
}
