package ticket

import (
	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
)

// TicketCmd returns the ticket command group
func TicketCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Manage tickets",
	}

	cmd.AddCommand(MoveCmd(open))

	return cmd
}
