package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the stalker instance directory",
		Long: `Create the stalker instance directory. Running init again is safe: existing
lists are never cleared. The lists themselves are created on first add.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container(cmd)
			if err != nil {
				return err
			}
			if err := c.StalkerAdapter().Init(cmd.Context(), c.Settings().Home); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  stalker add path <file-or-directory>")
			fmt.Fprintln(out, "  stalker add action 'echo {path} changed'")
			fmt.Fprintln(out, "  stalker run")
			return nil
		},
	}
}
