package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	boardservice "github.com/thenoetrevino/tablero/internal/services/board"
	ticketservice "github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.NotNil(t, a.UserService, "Expected UserService to be initialized")
	assert.NotNil(t, a.BoardService, "Expected BoardService to be initialized")
	assert.NotNil(t, a.StatusService, "Expected StatusService to be initialized")
	assert.NotNil(t, a.TicketService, "Expected TicketService to be initialized")
	assert.Nil(t, a.Hub, "the hub is only built on request")
	assert.Equal(t, 1024.0, a.Orderer.Config().Baseline)
}

func TestNew_OrderingConfigIsApplied(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ordering.Baseline = 100
	cfg.Ordering.Precision = 2

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, 100.0, a.Orderer.Config().Baseline)
	assert.Equal(t, 2, a.Orderer.Config().Precision)
}

func TestNew_ServicesShareOneStore(t *testing.T) {
	ctx := context.Background()
	recorder := &testutil.EventRecorder{}
	db := testutil.SetupTestDB(t)

	a, err := New(ctx, testConfig(t), WithDB(db), WithEventPublisher(recorder))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	owner := testutil.CreateTestUser(t, a.Repo, "owner")
	detail, err := a.BoardService.CreateBoard(ctx, boardservice.CreateBoardRequest{UserID: owner.ID, Title: "b"})
	require.NoError(t, err)

	tk, err := a.TicketService.CreateTicket(ctx, ticketservice.CreateTicketRequest{
		BoardID: detail.Board.ID, StatusID: detail.Statuses[0].ID, UserID: owner.ID, Title: "t",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024.0, tk.Position)
	assert.Equal(t, []events.EventType{events.TicketCreated}, recorder.Types())

	// Closing the app leaves a caller-owned database open.
	require.NoError(t, a.Close())
	require.NoError(t, db.PingContext(ctx))
}

func TestNew_WithHubPublishesThroughHub(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), WithHub())
	require.NoError(t, err)

	require.NotNil(t, a.Hub)
	owner := testutil.CreateTestUser(t, a.Repo, "owner")
	_, err = a.BoardService.CreateBoard(ctx, boardservice.CreateBoardRequest{UserID: owner.ID, Title: "b"})
	require.NoError(t, err)
	detail, err := a.BoardService.ListBoards(ctx, owner.ID, 1)
	require.NoError(t, err)
	title := "renamed"
	_, err = a.BoardService.UpdateBoard(ctx, boardservice.UpdateBoardRequest{
		BoardID: detail.Boards[0].ID, UserID: owner.ID, Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Hub.Metrics().EventsPublished)

	require.NoError(t, a.Close())
	require.Error(t, a.Hub.Publish(events.Event{}), "closed hubs refuse events")
}

func TestNew_RedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Lock.Backend = config.LockRedis
	cfg.Lock.RedisURL = "redis://" + mr.Addr()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	guard, err := a.Orderer.Acquire(context.Background(), a.Repo.TicketStore().Scope(), database.TicketGroup(1))
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "the group lock lives in redis")
	guard.Release()
	assert.Empty(t, mr.Keys())
}

func TestNew_UnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Lock.Backend = config.LockRedis
	cfg.Lock.RedisURL = "redis://" + addr

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
