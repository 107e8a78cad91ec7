package board

import (
	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
)

// ShowCmd returns the board show subcommand
func ShowCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board with its statuses and tickets",
		Long: `Display a board as lanes of status columns, each listing its tickets in order.

Examples:
  tablero board show 3 --as 1
  tablero board show 3 --as 1 --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args, open)
		},
	}

	cli.AddActingUserFlag(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string, open cli.Opener) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.ParseID("board ID", args[0])
	if err != nil {
		formatter.ErrorWithSuggestion(err, "Usage: tablero board show <board-id>")
		return err
	}
	userID, err := cli.ActingUser(cmd)
	if err != nil {
		formatter.Error(err)
		return err
	}

	c, err := open(ctx)
	if err != nil {
		formatter.Error(err)
		return err
	}
	defer func() { _ = c.Close() }()

	detail, err := c.App.BoardService.GetBoard(ctx, boardID, userID)
	if err != nil {
		formatter.Error(err)
		return err
	}

	return formatter.Success(detail, detail.Board.ID, RenderBoard(detail))
}
