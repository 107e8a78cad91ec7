package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/cli/board"
	"github.com/thenoetrevino/tablero/internal/cli/ticket"
	"github.com/thenoetrevino/tablero/internal/cli/user"
)

// NewRootCmd builds the tablero command tree. Commands that work on the local
// database open it through open.
func NewRootCmd(open cli.Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "tablero",
		Short: "Tablero - collaborative kanban boards",
		Long: `Tablero serves shared kanban boards over HTTP and websockets.
Members order statuses and tickets by drag and drop; every change is pushed
live to everyone watching the board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(ServeCmd())
	root.AddCommand(MigrateCmd())
	root.AddCommand(TokenCmd(open))
	root.AddCommand(user.UserCmd(open))
	root.AddCommand(board.BoardCmd(open))
	root.AddCommand(ticket.TicketCmd(open))

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cli.UsageError(err)
	})
	markReported(root)

	return root
}

// markReported tags every error returned by a command's RunE as already
// printed. Errors cobra raises itself stay untagged.
func markReported(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			return cli.Reported(run(c, args))
		}
	}
	for _, sub := range cmd.Commands() {
		markReported(sub)
	}
}

// Run executes root and prints errors no command reported. Unreported errors
// come from argument parsing and count as usage errors.
func Run(root *cobra.Command) error {
	c, err := root.ExecuteC()
	if err == nil || cli.IsReported(err) {
		return err
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %s\nRun '%s --help' for usage.\n", err, c.CommandPath())
	return cli.UsageError(err)
}

func Execute() error {
	return Run(NewRootCmd(cli.Open))
}
