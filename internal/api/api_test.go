package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/hub"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
	"github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/services/status"
	"github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/services/user"
	"github.com/thenoetrevino/tablero/internal/testutil"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type testServer struct {
	e    *echo.Echo
	auth *Auth
	hub  *hub.Hub
}

func setupServer(t *testing.T, auth *Auth) *testServer {
	t.Helper()
	_, repo := testutil.SetupTestRepository(t)

	h := hub.New(hub.DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})

	m := ordering.NewManager(ordering.DefaultConfig(), nil, nil)
	boards := board.NewService(repo, m, h, board.DefaultConfig())
	statuses := status.NewService(repo, boards, m, h)
	svc := Services{
		Users:    user.NewService(repo),
		Boards:   boards,
		Statuses: statuses,
		Tickets:  ticket.NewService(repo, boards, statuses, m, h),
	}
	if auth == nil {
		var err error
		auth, err = NewAuth(ModeHeader, nil)
		require.NoError(t, err)
	}
	return &testServer{e: New(svc, auth, h, nil), auth: auth, hub: h}
}

// do sends a request as userID (0 sends no identity) and returns the recorder.
func (s *testServer) do(t *testing.T, method, path string, userID int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != 0 {
		req.Header.Set(HeaderUserID, strconv.Itoa(userID))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(t *testing.T, nickname string) *models.User {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users", 0, map[string]string{
		"email":    nickname + "@example.com",
		"nickname": nickname,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.User](t, rec)
}

func (s *testServer) createBoard(t *testing.T, owner int, title string) *models.BoardDetail {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/boards", owner, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.BoardDetail](t, rec)
}

func (s *testServer) createTicket(t *testing.T, owner, boardID, statusID int, title string) *models.Ticket {
	t.Helper()
	path := fmt.Sprintf("/api/boards/%d/statuses/%d/tickets", boardID, statusID)
	rec := s.do(t, http.MethodPost, path, owner, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Ticket](t, rec)
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, httpStatus int, code string) {
	t.Helper()
	require.Equal(t, httpStatus, rec.Code, rec.Body.String())
	body := decode[ErrorBody](t, rec)
	assert.Equal(t, code, body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

// ============================================================================
// BASIC ROUTES
// ============================================================================

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	rec := s.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	rec := s.do(t, http.MethodGet, "/metrics", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[hub.MetricsSnapshot](t, rec)
	assert.Equal(t, int32(0), snap.ConnectedClients)
}

func TestRegisterAndMe(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	u := s.register(t, "ana")
	assert.Equal(t, "ana@example.com", u.Email)

	rec := s.do(t, http.MethodGet, "/api/users/me", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[*models.User](t, rec)
	assert.Equal(t, u.ID, me.ID)

	rec = s.do(t, http.MethodPost, "/api/users", 0, map[string]string{"email": "ANA@example.com", "nickname": "again"})
	assertError(t, rec, http.StatusConflict, CodeConflict)
}

func TestUpdateAndDeleteMe(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	u := s.register(t, "ana")
	s.register(t, "ben")

	rec := s.do(t, http.MethodPatch, "/api/users/me", u.ID, map[string]string{"nickname": "anita"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "anita", decode[*models.User](t, rec).Nickname)

	rec = s.do(t, http.MethodPatch, "/api/users/me", u.ID, map[string]string{"email": "ben@example.com"})
	assertError(t, rec, http.StatusConflict, CodeConflict)

	rec = s.do(t, http.MethodPatch, "/api/users/me", u.ID, map[string]string{"nickname": ""})
	assertError(t, rec, http.StatusBadRequest, CodeInvalidArgument)

	owned := s.createBoard(t, u.ID, "mine")
	rec = s.do(t, http.MethodDelete, "/api/users/me", u.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assertError(t, s.do(t, http.MethodGet, "/api/users/me", u.ID, nil), http.StatusUnauthorized, CodeUnauthorized)
	path := fmt.Sprintf("/api/boards/%d", owned.Board.ID)
	carl := s.register(t, "carl")
	assertError(t, s.do(t, http.MethodGet, path, carl.ID, nil), http.StatusNotFound, CodeNotFound)
}

func TestAuthenticationFailures(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)

	assertError(t, s.do(t, http.MethodGet, "/api/boards", 0, nil), http.StatusUnauthorized, CodeUnauthorized)
	assertError(t, s.do(t, http.MethodGet, "/api/boards", 4242, nil), http.StatusUnauthorized, CodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.Header.Set(HeaderUserID, "abc")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assertError(t, rec, http.StatusUnauthorized, CodeUnauthorized)
}

func TestBearerAuthentication(t *testing.T) {
	t.Parallel()
	auth, err := NewAuth(ModeJWT, []byte("test-secret"))
	require.NoError(t, err)
	s := setupServer(t, auth)
	u := s.register(t, "bo")

	token, err := auth.IssueToken(u.ID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The gateway header means nothing in jwt mode.
	assertError(t, s.do(t, http.MethodGet, "/api/users/me", u.ID, nil), http.StatusUnauthorized, CodeUnauthorized)
}

// ============================================================================
// BOARD ROUTES
// ============================================================================

func TestBoardMembershipFlow(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")
	guest := s.register(t, "guest")

	detail := s.createBoard(t, owner.ID, "Roadmap")
	require.Len(t, detail.Statuses, 3)
	boardPath := fmt.Sprintf("/api/boards/%d", detail.Board.ID)

	assertError(t, s.do(t, http.MethodGet, boardPath, guest.ID, nil), http.StatusForbidden, CodeForbidden)

	rec := s.do(t, http.MethodPost, boardPath+"/invite", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := decode[inviteResponse](t, rec).InviteCode
	assert.Len(t, code, board.DefaultInviteCodeLength)

	assertError(t, s.do(t, http.MethodPost, boardPath+"/invite", guest.ID, nil), http.StatusForbidden, CodeForbidden)
	assertError(t, s.do(t, http.MethodPost, boardPath+"/join", guest.ID, joinRequest{InviteCode: "nope"}),
		http.StatusForbidden, CodeForbidden)

	rec = s.do(t, http.MethodPost, boardPath+"/join", guest.ID, joinRequest{InviteCode: code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertError(t, s.do(t, http.MethodPost, boardPath+"/join", guest.ID, joinRequest{InviteCode: code}),
		http.StatusConflict, CodeConflict)

	rec = s.do(t, http.MethodGet, boardPath, guest.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[*models.BoardDetail](t, rec)
	assert.ElementsMatch(t, []int{owner.ID, guest.ID}, got.MemberIDs)
	assert.Empty(t, got.Board.InviteCode, "only the owner sees the invite code")

	rec = s.do(t, http.MethodGet, "/api/boards?page=1", guest.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[*models.BoardPage](t, rec)
	assert.Equal(t, 1, page.Total)

	assertError(t, s.do(t, http.MethodPost, boardPath+"/leave", owner.ID, nil), http.StatusConflict, CodeConflict)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("%s/members/%d", boardPath, guest.ID), owner.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assertError(t, s.do(t, http.MethodGet, boardPath, guest.ID, nil), http.StatusForbidden, CodeForbidden)
}

func TestUpdateAndDeleteBoard(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")
	detail := s.createBoard(t, owner.ID, "Old")
	boardPath := fmt.Sprintf("/api/boards/%d", detail.Board.ID)

	rec := s.do(t, http.MethodPatch, boardPath, owner.ID, map[string]string{"title": "New", "icon": "rocket"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[*models.Board](t, rec)
	assert.Equal(t, "New", b.Title)
	assert.Equal(t, "rocket", b.Icon)

	assertError(t, s.do(t, http.MethodPatch, boardPath, owner.ID, map[string]string{"title": " "}),
		http.StatusBadRequest, CodeInvalidArgument)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, boardPath, owner.ID, nil).Code)
	assertError(t, s.do(t, http.MethodGet, boardPath, owner.ID, nil), http.StatusNotFound, CodeNotFound)
}

func TestBadPathParameters(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")

	assertError(t, s.do(t, http.MethodGet, "/api/boards/abc", owner.ID, nil), http.StatusBadRequest, CodeInvalidArgument)
	assertError(t, s.do(t, http.MethodGet, "/api/boards/0", owner.ID, nil), http.StatusBadRequest, CodeInvalidArgument)
	assertError(t, s.do(t, http.MethodGet, "/api/boards?page=x", owner.ID, nil), http.StatusBadRequest, CodeInvalidArgument)
	assertError(t, s.do(t, http.MethodGet, "/api/boards/99", owner.ID, nil), http.StatusNotFound, CodeNotFound)
}

// ============================================================================
// STATUS AND TICKET ROUTES
// ============================================================================

func TestStatusRoutes(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")
	detail := s.createBoard(t, owner.ID, "b")
	statusesPath := fmt.Sprintf("/api/boards/%d/statuses", detail.Board.ID)

	assertError(t, s.do(t, http.MethodPost, statusesPath, owner.ID, map[string]string{"title": "x", "lane": "later"}),
		http.StatusBadRequest, CodeInvalidArgument)

	rec := s.do(t, http.MethodPost, statusesPath, owner.ID, map[string]string{"title": "Backlog", "lane": "todo", "color": "red"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	backlog := decode[*models.Status](t, rec)
	assert.Equal(t, 2048.0, backlog.Position)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("%s/%d", statusesPath, backlog.ID), owner.ID, map[string]float64{"position": 512})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[status.UpdateResult](t, rec)
	assert.Equal(t, 512.0, res.Status.Position)

	assertError(t, s.do(t, http.MethodPatch, fmt.Sprintf("%s/%d", statusesPath, backlog.ID), owner.ID, map[string]float64{"position": -1}),
		http.StatusBadRequest, CodeInvalidArgument)

	rec = s.do(t, http.MethodGet, statusesPath, owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]*models.Status](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, backlog.ID, list[0].ID)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", statusesPath, backlog.ID), owner.ID, nil).Code)
	assertError(t, s.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", statusesPath, backlog.ID), owner.ID, nil),
		http.StatusNotFound, CodeNotFound)
}

func TestTicketRoutes(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")
	detail := s.createBoard(t, owner.ID, "b")
	boardID := detail.Board.ID
	todo, doing := detail.Statuses[0].ID, detail.Statuses[1].ID

	a := s.createTicket(t, owner.ID, boardID, todo, "A")
	b := s.createTicket(t, owner.ID, boardID, todo, "B")
	assert.Equal(t, 1024.0, a.Position)
	assert.Equal(t, 2048.0, b.Position)

	ticketPath := func(statusID, ticketID int) string {
		return fmt.Sprintf("/api/boards/%d/statuses/%d/tickets/%d", boardID, statusID, ticketID)
	}

	rec := s.do(t, http.MethodPatch, ticketPath(todo, b.ID), owner.ID, map[string]float64{"position": 512})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ticket.UpdateResult](t, rec)
	assert.Equal(t, 512.0, res.Ticket.Position)
	assert.False(t, res.Renormalized)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/boards/%d/statuses/%d/tickets", boardID, todo), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]*models.Ticket](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, []int{b.ID, a.ID}, []int{list[0].ID, list[1].ID})

	rec = s.do(t, http.MethodPatch, ticketPath(todo, a.ID), owner.ID, map[string]int{"statusId": doing})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[ticket.UpdateResult](t, rec)
	assert.Equal(t, doing, res.Ticket.StatusID)

	// The old status path no longer addresses the ticket.
	assertError(t, s.do(t, http.MethodGet, ticketPath(todo, a.ID), owner.ID, nil), http.StatusNotFound, CodeNotFound)
	rec = s.do(t, http.MethodGet, ticketPath(doing, a.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, ticketPath(doing, a.ID), owner.ID, map[string]string{
		"startDate": "2024-03-02T00:00:00Z",
		"endDate":   "2024-03-01T00:00:00Z",
	})
	assertError(t, rec, http.StatusBadRequest, CodeInvalidArgument)

	assertError(t, s.do(t, http.MethodPatch, ticketPath(doing, a.ID), owner.ID, "not an object"),
		http.StatusBadRequest, CodeInvalidArgument)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, ticketPath(doing, a.ID), owner.ID, nil).Code)
	assertError(t, s.do(t, http.MethodGet, ticketPath(doing, a.ID), owner.ID, nil), http.StatusNotFound, CodeNotFound)
}

// ============================================================================
// WEBSOCKET
// ============================================================================

func TestWatchBoardStreamsEvents(t *testing.T) {
	t.Parallel()
	s := setupServer(t, nil)
	owner := s.register(t, "owner")
	outsider := s.register(t, "outsider")
	detail := s.createBoard(t, owner.ID, "b")

	srv := httptest.NewServer(s.e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	denied, err := events.NewClient(srv.URL, detail.Board.ID, "")
	require.NoError(t, err)
	denied.SetHeader(HeaderUserID, strconv.Itoa(outsider.ID))
	err = denied.Connect(ctx)
	var ce *events.ConnectError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.Retryable())

	c, err := events.NewClient(srv.URL, detail.Board.ID, "")
	require.NoError(t, err)
	c.SetHeader(HeaderUserID, strconv.Itoa(owner.ID))
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	ch, err := c.Listen(ctx)
	require.NoError(t, err)

	created := s.createTicket(t, owner.ID, detail.Board.ID, detail.Statuses[0].ID, "live")

	select {
	case e := <-ch:
		assert.Equal(t, events.TicketCreated, e.Type)
		assert.Equal(t, detail.Board.ID, e.BoardID)
		assert.Equal(t, owner.ID, e.ActorID)
		var payload models.Ticket
		require.NoError(t, json.Unmarshal(e.Payload, &payload))
		assert.Equal(t, created.ID, payload.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for ticket.created")
	}
}
