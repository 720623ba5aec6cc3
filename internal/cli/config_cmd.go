package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/stalker/internal/config"
	"github.com/example/stalker/internal/version"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as YAML",
		Long: `Print the effective settings as YAML.

Settings come from, in order of precedence: flags, STALKER_* environment
variables (STALKER_DEBOUNCE, STALKER_SHELL, ...), and <home>/config.yaml.
The output is valid config.yaml content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			data, err := s.YAML()
			if err != nil {
				return fmt.Errorf("failed to render settings: %w", err)
			}
			out := cmd.OutOrStdout()
			if s.File != "" {
				fmt.Fprintf(out, "# read from %s\n", s.File)
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().Duration(config.KeyDebounce, config.DefaultDebounce, "debounce window")
	cmd.Flags().String(config.KeyShell, "", "shell used to run actions")
	cmd.Flags().Bool(config.KeyRecursive, false, "recursive targets")
	return cmd
}

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stalker version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
