package board

import (
	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
)

// BoardCmd returns the board command group
func BoardCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and follow boards",
	}

	cmd.AddCommand(ShowCmd(open))
	cmd.AddCommand(WatchCmd())

	return cmd
}
