package ticket

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/database"
	ticketservice "github.com/thenoetrevino/tablero/internal/services/ticket"
)

// MoveCmd returns the ticket move subcommand
func MoveCmd(open cli.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <ticket-id>",
		Short: "Move a ticket to another position or status",
		Long: `Move a ticket inside its status or into another status of the same board.
Positions order tickets ascending; pick a value between two neighbors to place
the ticket between them. Crowded statuses are renumbered automatically.

Examples:
  # Between tickets at 1024 and 2048
  tablero ticket move 12 --position 1536 --as 1

  # To another status, keeping the current position
  tablero ticket move 12 --status 4 --as 1
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, args, open)
		},
	}

	cmd.Flags().Int("status", 0, "Destination status ID")
	cmd.Flags().Float64("position", 0, "Destination position")
	cli.AddActingUserFlag(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func runMove(cmd *cobra.Command, args []string, open cli.Opener) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	ticketID, err := cli.ParseID("ticket ID", args[0])
	if err != nil {
		formatter.ErrorWithSuggestion(err, "Usage: tablero ticket move <ticket-id> --position <p>")
		return err
	}
	userID, err := cli.ActingUser(cmd)
	if err != nil {
		formatter.Error(err)
		return err
	}

	req := ticketservice.UpdateTicketRequest{}
	if cmd.Flags().Changed("status") {
		statusID, _ := cmd.Flags().GetInt("status")
		req.TargetStatusID = &statusID
	}
	if cmd.Flags().Changed("position") {
		pos, _ := cmd.Flags().GetFloat64("position")
		req.Position = &pos
	}
	if req.TargetStatusID == nil && req.Position == nil {
		err := cli.UsageError(errors.New("nothing to do: pass --status, --position or both"))
		formatter.Error(err)
		return err
	}

	c, err := open(ctx)
	if err != nil {
		formatter.Error(err)
		return err
	}
	defer func() { _ = c.Close() }()

	// The service addresses tickets through their board and status.
	current, err := c.App.Repo.GetTicket(ctx, ticketID)
	if errors.Is(err, database.ErrNotFound) {
		err = fmt.Errorf("ticket %d: %w", ticketID, ticketservice.ErrTicketNotFound)
	}
	if err != nil {
		formatter.Error(err)
		return err
	}
	req.Ref = ticketservice.Ref{
		BoardID:  current.BoardID,
		StatusID: current.StatusID,
		TicketID: ticketID,
		UserID:   userID,
	}

	res, err := c.App.TicketService.UpdateTicket(ctx, req)
	if err != nil {
		formatter.Error(err)
		return err
	}

	human := fmt.Sprintf("Moved ticket #%d to status %d at position %g", res.Ticket.ID, res.Ticket.StatusID, res.Ticket.Position)
	if res.Renormalized {
		human += fmt.Sprintf(" (status renumbered, %d tickets)", len(res.Items))
	}
	return formatter.Success(res, res.Ticket.ID, human)
}
