package board

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/tablero/internal/api"
	"github.com/thenoetrevino/tablero/internal/app"
	"github.com/thenoetrevino/tablero/internal/cli"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/models"
	boardservice "github.com/thenoetrevino/tablero/internal/services/board"
	ticketservice "github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/testutil"
)

// setupBoard opens a CLI over a fresh database holding one board with a ticket
// in its first status.
func setupBoard(t *testing.T, opts ...app.Option) (*cli.CLI, cli.Opener, *models.BoardDetail, int) {
	t.Helper()
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	cfg := config.Default()

	open := func(ctx context.Context) (*cli.CLI, error) {
		return cli.NewCLI(ctx, cfg, app.WithDB(db))
	}
	seed, err := cli.NewCLI(ctx, cfg, append([]app.Option{app.WithDB(db)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seed.Close() })

	owner := testutil.CreateTestUser(t, seed.App.Repo, "owner")
	detail, err := seed.App.BoardService.CreateBoard(ctx, boardservice.CreateBoardRequest{UserID: owner.ID, Title: "Launch"})
	require.NoError(t, err)
	_, err = seed.App.TicketService.CreateTicket(ctx, ticketservice.CreateTicketRequest{
		BoardID: detail.Board.ID, StatusID: detail.Statuses[0].ID, UserID: owner.ID, Title: "Write docs",
	})
	require.NoError(t, err)
	return seed, open, detail, owner.ID
}

func TestShow_RendersLanes(t *testing.T) {
	_, open, detail, owner := setupBoard(t)

	out, err := testutil.ExecuteCommand(t, ShowCmd(open), strconv.Itoa(detail.Board.ID), "--as", strconv.Itoa(owner))
	require.NoError(t, err)

	plain := ansi.Strip(out)
	for _, want := range []string{"Launch", "To do", "In progress", "Complete", "Not started", "Done", "Write docs", "no tickets"} {
		assert.Contains(t, plain, want)
	}
	assert.Less(t, strings.Index(plain, "To do"), strings.Index(plain, "Complete"), "lanes render in board order")
}

func TestShow_JSON(t *testing.T) {
	_, open, detail, owner := setupBoard(t)

	out, err := testutil.ExecuteCommand(t, ShowCmd(open), strconv.Itoa(detail.Board.ID), "--as", strconv.Itoa(owner), "--json")
	require.NoError(t, err)

	result := testutil.ParseJSON(t, out)
	assert.Equal(t, true, result["success"])
	data := result["data"].(map[string]any)
	assert.Equal(t, "Launch", data["board"].(map[string]any)["title"])
	assert.Len(t, data["statuses"], 3)
}

func TestShow_Errors(t *testing.T) {
	_, open, detail, owner := setupBoard(t)
	boardArg := strconv.Itoa(detail.Board.ID)

	t.Run("bad id", func(t *testing.T) {
		_, err := testutil.ExecuteCommand(t, ShowCmd(open), "abc", "--as", strconv.Itoa(owner))
		assert.Equal(t, cli.ExitUsage, cli.ExitCodeFor(err))
	})

	t.Run("no acting user", func(t *testing.T) {
		t.Setenv(cli.EnvUser, "")
		_, err := testutil.ExecuteCommand(t, ShowCmd(open), boardArg)
		assert.Equal(t, cli.ExitUsage, cli.ExitCodeFor(err))
	})

	t.Run("acting user from env", func(t *testing.T) {
		t.Setenv(cli.EnvUser, strconv.Itoa(owner))
		_, err := testutil.ExecuteCommand(t, ShowCmd(open), boardArg)
		assert.NoError(t, err)
	})

	t.Run("not a member", func(t *testing.T) {
		out, err := testutil.ExecuteCommand(t, ShowCmd(open), boardArg, "--as", strconv.Itoa(owner+100), "--json")
		assert.Equal(t, cli.ExitPermission, cli.ExitCodeFor(err))
		result := testutil.ParseJSON(t, out)
		assert.Equal(t, false, result["success"])
		assert.Equal(t, "PERMISSION_DENIED", result["error"].(map[string]any)["code"])
	})

	t.Run("missing board", func(t *testing.T) {
		_, err := testutil.ExecuteCommand(t, ShowCmd(open), "999", "--as", strconv.Itoa(owner))
		assert.Equal(t, cli.ExitNotFound, cli.ExitCodeFor(err))
	})
}

func TestWatch_PrintsEvents(t *testing.T) {
	seed, _, detail, owner := setupBoard(t, app.WithHub())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go seed.App.Hub.Run(ctx)
	// Drain the seeding events before anyone subscribes.
	require.Eventually(t, func() bool {
		m := seed.App.Hub.Metrics()
		return m.BroadcastsTotal == m.EventsPublished
	}, time.Second, 10*time.Millisecond)

	auth, err := api.NewAuth(api.ModeHeader, nil)
	require.NoError(t, err)
	e := api.New(api.Services{
		Users:    seed.App.UserService,
		Boards:   seed.App.BoardService,
		Statuses: seed.App.StatusService,
		Tickets:  seed.App.TicketService,
	}, auth, seed.App.Hub, nil)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	go func() {
		// Publish once the watcher is subscribed.
		for seed.App.Hub.Metrics().ConnectedClients == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		title := "Shipped"
		_, _ = seed.App.BoardService.UpdateBoard(ctx, boardservice.UpdateBoardRequest{
			BoardID: detail.Board.ID, UserID: owner, Title: &title,
		})
	}()

	cmd := WatchCmd()
	cmd.SetContext(ctx)
	out, err := testutil.ExecuteCommand(t, cmd, strconv.Itoa(detail.Board.ID),
		"--server", srv.URL, "--as", strconv.Itoa(owner), "--count", "1")
	require.NoError(t, err)

	plain := ansi.Strip(out)
	assert.Contains(t, plain, "watching board #"+strconv.Itoa(detail.Board.ID))
	assert.Contains(t, plain, "board.updated")
	assert.Contains(t, plain, "Shipped")
}

func TestWatch_Unauthorized(t *testing.T) {
	seed, _, detail, _ := setupBoard(t, app.WithHub())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go seed.App.Hub.Run(ctx)

	auth, err := api.NewAuth(api.ModeJWT, []byte("secret"))
	require.NoError(t, err)
	srv := httptest.NewServer(api.New(api.Services{
		Users:  seed.App.UserService,
		Boards: seed.App.BoardService,
	}, auth, seed.App.Hub, nil))
	t.Cleanup(srv.Close)

	out, err := testutil.ExecuteCommand(t, WatchCmd(), strconv.Itoa(detail.Board.ID), "--server", srv.URL, "--token", "")
	require.Error(t, err)
	assert.Contains(t, out, "Pass a valid token")
}
