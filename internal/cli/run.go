package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/stalker/internal/config"
	"github.com/example/stalker/internal/ports/primary"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch every stalked path and run the actions on change",
		Long: `Watch every stalked path and run the actions on change.

Each stalked path is expanded into the file or directory itself plus everything
below it, and every node is watched on its own. Writes within the debounce window
are folded into one change. For each change the actions run one after another
with {path} replaced by the changed path. Lists are read once at start.

With --recursive each stalked path is watched as a single recursive target
instead, and {path} is the descendant that was written.

Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			monitor, err := c.MonitorService()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := c.Settings()
			c.Logger().Info("starting monitor", "home", s.Home, "debounce", s.Debounce, "shell", s.Shell, "recursive", s.Recursive)
			return monitor.Run(ctx, primary.MonitorRequest{
				InstanceDir: s.Home,
				Recursive:   s.Recursive,
			})
		},
	}

	cmd.Flags().Duration(config.KeyDebounce, config.DefaultDebounce, "quiet period that folds bursts of writes into one change")
	cmd.Flags().String(config.KeyShell, "", `shell used to run actions (default "sh -c", "cmd /C" on Windows)`)
	cmd.Flags().Bool(config.KeyRecursive, false, "watch each stalked path as one recursive target")
	return cmd
}

// TargetsCmd returns the targets command
func TargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Print the watch targets a run would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container(cmd)
			if err != nil {
				return err
			}
			s := c.Settings()
			return c.StalkerAdapter().Targets(cmd.Context(), s.Home, s.Recursive)
		},
	}
	cmd.Flags().Bool(config.KeyRecursive, false, "resolve each stalked path as one recursive target")
	return cmd
}
