package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/stalker/internal/config"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/version"
	"github.com/example/stalker/internal/wire"
)

// RootCmd returns the stalker command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "stalker",
		Short:   "Stalk files and directories, run actions when they change",
		Version: version.String(),
		Long: `stalker keeps two lists in an instance directory (~/.stalker by default):
paths to stalk and shell actions to run. "stalker run" watches every stalked path
and runs each action, in order, whenever one of them is written. The literal
token {path} in an action is replaced with the path that changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyHome, config.DefaultHome, "stalker instance directory (env STALKER_HOME)")
	flags.String(config.KeyLogLevel, "warn", "diagnostic log level: debug, info, warn, error")
	flags.String(config.KeyLogFormat, "text", "diagnostic log format: text, logfmt, json")
	flags.Bool(config.KeyNoColor, false, "disable colored output")

	root.AddCommand(InitCmd())
	root.AddCommand(AddCmd())
	root.AddCommand(RemoveCmd())
	root.AddCommand(ListCmd())
	root.AddCommand(TargetsCmd())
	root.AddCommand(RunCmd())
	root.AddCommand(ConfigCmd())
	root.AddCommand(VersionCmd())

	return root
}

// Reported reports whether err was already shown to the user by the reporter.
func Reported(err error) bool {
	var tagged *outcome.Error
	return errors.As(err, &tagged)
}

// container loads settings from the command's flags and wires the application.
func container(cmd *cobra.Command) (*wire.Container, error) {
	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return wire.New(settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
