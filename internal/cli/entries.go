package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/stalker/internal/adapters/cli"
)

// AddCmd returns the add command
func AddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path|action> <entry>...",
		Short: "Append paths or actions to their list",
		Long: `Append entries to the stalklist (add path) or the actionlist (add action).
The list is created if it does not exist yet. Entries are stored verbatim, one
per line; duplicates are kept. Quote actions so the shell passes them whole:

  stalker add action 'gofmt -l {path}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := cliadapter.ParseList(args[0])
			if err != nil {
				return err
			}
			c, err := container(cmd)
			if err != nil {
				return err
			}
			return c.StalkerAdapter().Add(cmd.Context(), list, c.Settings().Home, args[1:])
		},
	}
}

// RemoveCmd returns the remove command
func RemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path|action> <entry>...",
		Short: "Remove every line equal to the given entries",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := cliadapter.ParseList(args[0])
			if err != nil {
				return err
			}
			c, err := container(cmd)
			if err != nil {
				return err
			}
			return c.StalkerAdapter().Remove(cmd.Context(), list, c.Settings().Home, args[1:])
		},
	}
}

// ListCmd returns the list command
func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list <paths|actions>",
		Short:     "Print a list in file order",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"paths", "actions"},
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := cliadapter.ParseList(args[0])
			if err != nil {
				return err
			}
			c, err := container(cmd)
			if err != nil {
				return err
			}
			return c.StalkerAdapter().List(cmd.Context(), list, c.Settings().Home)
		},
	}
}
