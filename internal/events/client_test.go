package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHub accepts one subscriber and sends it the given messages.
func fakeHub(t *testing.T, wantAuth string, msgs []Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/boards/3/ws" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Message{Type: MessageHello, BoardID: 3})
		for _, m := range msgs {
			_ = conn.WriteJSON(m)
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ReceivesEventsInOrderWithoutDuplicates(t *testing.T) {
	e1 := Event{Type: TicketCreated, BoardID: 3, SequenceID: 1}
	e2 := Event{Type: TicketMoved, BoardID: 3, SequenceID: 2}
	srv := fakeHub(t, "Bearer tok", []Message{
		{Type: MessageEvent, Event: &e1},
		{Type: MessageEvent, Event: &e1}, // duplicate
		{Type: "unknown"},
		{Type: MessageEvent, Event: &e2},
	})

	c, err := NewClient(srv.URL, 3, "tok")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	ch, err := c.Listen(ctx)
	require.NoError(t, err)

	got := []EventType{(<-ch).Type, (<-ch).Type}
	assert.Equal(t, []EventType{TicketCreated, TicketMoved}, got)
}

func TestClient_UnauthorizedIsClassified(t *testing.T) {
	srv := fakeHub(t, "Bearer right", nil)

	c, err := NewClient(srv.URL, 3, "wrong")
	require.NoError(t, err)
	err = c.Connect(context.Background())

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnauthorized, ce.Code)
	assert.False(t, ce.Retryable())
}

func TestClient_CloseStopsListen(t *testing.T) {
	srv := fakeHub(t, "", nil)

	c, err := NewClient(srv.URL, 3, "")
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))

	ch, err := c.Listen(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen channel not closed after Close")
	}
	assert.NoError(t, c.Close(), "second Close is a no-op")
}

func TestNewClient_URL(t *testing.T) {
	c, err := NewClient("https://example.com/base/", 12, "")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/base/api/boards/12/ws", c.url)

	_, err = NewClient("ftp://example.com", 1, "")
	assert.Error(t, err)
}

func TestNilClient(t *testing.T) {
	var c *Client
	ch, err := c.Listen(context.Background())
	assert.Error(t, err)
	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestClassifyConnectError(t *testing.T) {
	base := errors.New("dial failed")

	assert.Nil(t, ClassifyConnectError(nil, nil))

	tests := []struct {
		name string
		err  error
		resp *http.Response
		want ErrorCode
	}{
		{"forbidden", base, &http.Response{StatusCode: http.StatusForbidden}, ErrForbidden},
		{"not found", base, &http.Response{StatusCode: http.StatusNotFound}, ErrBoardNotFound},
		{"other status", base, &http.Response{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"}, ErrHandshakeFailed},
		{"refused", syscall.ECONNREFUSED, nil, ErrServerUnreachable},
		{"unknown", base, nil, ErrServerUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyConnectError(tt.err, tt.resp)
			require.NotNil(t, ce)
			assert.Equal(t, tt.want, ce.Code)
			assert.ErrorIs(t, ce, tt.err)
			assert.NotEmpty(t, ce.Error())
		})
	}

	ce := ClassifyConnectError(base, &http.Response{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"})
	assert.True(t, strings.Contains(ce.Error(), "502"))
}
