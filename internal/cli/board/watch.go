package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/tablero/internal/api"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/cli/styles"
	"github.com/thenoetrevino/tablero/internal/events"
)

// Environment defaults of watch.
const (
	EnvServer = "TABLERO_SERVER"
	EnvToken  = "TABLERO_TOKEN"
)

// WatchCmd returns the board watch subcommand
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <board-id>",
		Short: "Stream live changes of a board from a running server",
		Long: `Subscribe to a board on a tablero server and print every change as it happens.
The connection is re-established when the server goes away.

Examples:
  TABLERO_TOKEN=... tablero board watch 3
  tablero board watch 3 --server http://localhost:8080 --as 1 --json
`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().String("server", envOr(EnvServer, "http://localhost:8080"), "Server URL")
	cmd.Flags().String("token", os.Getenv(EnvToken), "Bearer token")
	cmd.Flags().Int("as", 0, "User ID sent as "+api.HeaderUserID+" when the server trusts a gateway")
	cmd.Flags().Int("count", 0, "Exit after this many events (0 streams until interrupted)")
	cmd.Flags().Bool("json", false, "Print events as JSON lines")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	formatter := cli.NewFormatter(cmd)

	boardID, err := cli.ParseID("board ID", args[0])
	if err != nil {
		formatter.ErrorWithSuggestion(err, "Usage: tablero board watch <board-id>")
		return err
	}
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	as, _ := cmd.Flags().GetInt("as")
	count, _ := cmd.Flags().GetInt("count")

	client, err := events.NewClient(server, boardID, token)
	if err != nil {
		formatter.Error(cli.UsageError(err))
		return err
	}
	if as > 0 {
		client.SetHeader(api.HeaderUserID, strconv.Itoa(as))
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := client.Connect(ctx); err != nil {
		var ce *events.ConnectError
		if errors.As(err, &ce) {
			formatter.ErrorWithSuggestion(err, ce.Hint)
		} else {
			formatter.Error(err)
		}
		return err
	}
	if !formatter.JSON {
		fmt.Fprintln(formatter.Err, styles.SuccessStyle.Render(fmt.Sprintf("watching board #%d", boardID)))
	}

	ch, err := client.Listen(ctx)
	if err != nil {
		formatter.Error(err)
		return err
	}

	seen := 0
	for e := range ch {
		if err := printEvent(formatter.Out, e, formatter.JSON); err != nil {
			return err
		}
		seen++
		if count > 0 && seen >= count {
			return nil
		}
	}
	return nil
}

func printEvent(w io.Writer, e events.Event, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(e)
	}
	line := fmt.Sprintf("%s %s %s",
		styles.SubtitleStyle.Render(e.Timestamp.Local().Format("15:04:05")),
		styles.SubtitleStyle.Render("#"+strconv.FormatInt(e.SequenceID, 10)),
		styles.TitleStyle.Render(string(e.Type)))
	if e.ActorID != 0 {
		line += styles.SubtitleStyle.Render(fmt.Sprintf(" by user %d", e.ActorID))
	}
	if len(e.Payload) > 0 {
		line += " " + styles.ValueStyle.Render(string(e.Payload))
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
