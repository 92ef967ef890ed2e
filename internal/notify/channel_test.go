package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	wstypes "ebeauty-client/internal/domain/websocket"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/notify"
)

// socketServer accepts connections and records what clients send
type socketServer struct {
	*httptest.Server

	mu     sync.Mutex
	conns  []*websocket.Conn
	tokens []string
	joins  []string
	closed int
	dials  int
	reject bool
}

func newSocketServer(t *testing.T) *socketServer {
	t.Helper()
	s := &socketServer{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.dials++
		reject := s.reject
		s.mu.Unlock()
		if reject {
			http.Error(w, "restarting", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.tokens = append(s.tokens, r.URL.Query().Get("token"))
		s.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				s.mu.Lock()
				s.closed++
				s.mu.Unlock()
				return
			}
			msg, err := wstypes.ParseMessage(data)
			if err != nil || msg.Type != wstypes.EventTypeJoinRoom {
				continue
			}
			var req wstypes.JoinRoomRequest
			if err := msg.Bind(&req); err == nil {
				s.mu.Lock()
				s.joins = append(s.joins, req.UserID)
				s.mu.Unlock()
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *socketServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

func (s *socketServer) Joins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.joins...)
}

func (s *socketServer) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *socketServer) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *socketServer) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *socketServer) Reject(v bool) {
	s.mu.Lock()
	s.reject = v
	s.mu.Unlock()
}

// goAway closes the most recent connection the way a restarting server does
func (s *socketServer) goAway(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"),
		time.Now().Add(time.Second))
	require.NoError(t, conn.Close())
}

// push sends msg on the most recent connection
func (s *socketServer) push(t *testing.T, msg *wstypes.WSMessage) {
	t.Helper()
	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()

	data, err := msg.ToJSON()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func newChannel(s *socketServer) *notify.Channel {
	return notify.NewChannel(notify.Config{URL: s.wsURL()}, zap.NewNop())
}

func TestConnect_JoinsRoomWithToken(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	ch.SetTokenSource(func() string { return "tok1" })
	defer ch.Disconnect()

	require.NoError(t, ch.Connect(context.Background(), "42"))

	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"42"}, s.Joins())

	s.mu.Lock()
	assert.Equal(t, []string{"tok1"}, s.tokens)
	s.mu.Unlock()

	userID, ok := ch.Connected()
	assert.True(t, ok)
	assert.Equal(t, "42", userID)
}

func TestConnect_SameUserIsNoop(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	defer ch.Disconnect()

	ctx := context.Background()
	require.NoError(t, ch.Connect(ctx, "42"))
	require.NoError(t, ch.Connect(ctx, "42"))

	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Conns())
}

func TestConnect_OtherUserReplacesConnection(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	defer ch.Disconnect()

	ctx := context.Background()
	require.NoError(t, ch.Connect(ctx, "1"))
	require.NoError(t, ch.Connect(ctx, "2"))

	require.Eventually(t, func() bool { return len(s.Joins()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1", "2"}, s.Joins())
	require.Eventually(t, func() bool { return s.Closed() == 1 }, time.Second, 10*time.Millisecond)

	userID, ok := ch.Connected()
	assert.True(t, ok)
	assert.Equal(t, "2", userID)
}

func TestConnect_Unreachable(t *testing.T) {
	ch := notify.NewChannel(notify.Config{URL: "ws://127.0.0.1:1/ws", HandshakeTimeout: 200 * time.Millisecond}, nil)

	err := ch.Connect(context.Background(), "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrUnreachable)

	_, ok := ch.Connected()
	assert.False(t, ok)
}

func TestConnect_EmptyUser(t *testing.T) {
	ch := notify.NewChannel(notify.Config{URL: "ws://127.0.0.1:1/ws"}, nil)
	assert.ErrorIs(t, ch.Connect(context.Background(), ""), xerrors.ErrInvalidInput)
}

func TestSubscribe_ReceivesBookingRequest(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	defer ch.Disconnect()

	got := make(chan wstypes.BookingRequestData, 1)
	ch.Subscribe(wstypes.EventTypeNewBookingRequest, func(msg *wstypes.WSMessage) {
		var data wstypes.BookingRequestData
		if msg.Bind(&data) == nil {
			got <- data
		}
	})

	require.NoError(t, ch.Connect(context.Background(), "2"))
	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)

	s.push(t, wstypes.NewMessage(wstypes.EventTypeNewBookingRequest, wstypes.BookingRequestData{
		BookingID:   "b1",
		ClientName:  "Test Client",
		ServiceName: "Gel Manicure",
	}))

	select {
	case data := <-got:
		assert.Equal(t, "b1", data.BookingID)
		assert.Equal(t, "Gel Manicure", data.ServiceName)
	case <-time.After(2 * time.Second):
		t.Fatal("booking request not delivered")
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	defer ch.Disconnect()

	var (
		mu    sync.Mutex
		first int
	)
	second := make(chan struct{}, 4)

	unsubscribe := ch.Subscribe(wstypes.EventTypeNotification, func(*wstypes.WSMessage) {
		mu.Lock()
		first++
		mu.Unlock()
	})
	ch.Subscribe(wstypes.EventTypeNotification, func(*wstypes.WSMessage) { second <- struct{}{} })

	unsubscribe()
	unsubscribe()

	require.NoError(t, ch.Connect(context.Background(), "1"))
	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)
	s.push(t, wstypes.NewMessage(wstypes.EventTypeNotification, wstypes.NotificationData{Title: "hi"}))

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining handler not called")
	}
	mu.Lock()
	assert.Zero(t, first)
	mu.Unlock()
}

/*
TestDisconnect_DropsSubscriptions: after logout no event may reach a
handler registered for the previous user.
*/
func TestDisconnect_DropsSubscriptions(t *testing.T) {
	s := newSocketServer(t)
	ch := newChannel(s)
	ctx := context.Background()

	stale := make(chan struct{}, 4)
	ch.Subscribe(wstypes.EventTypeNewBookingRequest, func(*wstypes.WSMessage) { stale <- struct{}{} })

	require.NoError(t, ch.Connect(ctx, "2"))
	ch.Disconnect()
	ch.Disconnect()

	_, ok := ch.Connected()
	assert.False(t, ok)
	require.Eventually(t, func() bool { return s.Closed() == 1 }, time.Second, 10*time.Millisecond)

	fresh := make(chan struct{}, 4)
	require.NoError(t, ch.Connect(ctx, "1"))
	defer ch.Disconnect()
	ch.Subscribe(wstypes.EventTypeNewBookingRequest, func(*wstypes.WSMessage) { fresh <- struct{}{} })
	require.Eventually(t, func() bool { return len(s.Joins()) == 2 }, time.Second, 10*time.Millisecond)

	s.push(t, wstypes.NewMessage(wstypes.EventTypeNewBookingRequest, wstypes.BookingRequestData{BookingID: "b2"}))

	select {
	case <-fresh:
	case <-time.After(2 * time.Second):
		t.Fatal("new handler not called")
	}
	assert.Empty(t, stale)
}

func TestSend_NotConnected(t *testing.T) {
	ch := notify.NewChannel(notify.Config{URL: "ws://127.0.0.1:1/ws"}, nil)
	err := ch.Send(wstypes.NewMessage(wstypes.EventTypePing, nil))
	assert.ErrorIs(t, err, xerrors.ErrNotConnected)
}

func newRedialingChannel(s *socketServer) *notify.Channel {
	return notify.NewChannel(notify.Config{
		URL:          s.wsURL(),
		ReconnectMin: 20 * time.Millisecond,
		ReconnectMax: 80 * time.Millisecond,
	}, zap.NewNop())
}

/*
TestServerClose_ReconnectsOnItsOwn: a dropped connection is redialed for the
same user, the room is joined again and existing subscriptions keep
receiving events.
*/
func TestServerClose_ReconnectsOnItsOwn(t *testing.T) {
	s := newSocketServer(t)
	ch := newRedialingChannel(s)
	ch.SetTokenSource(func() string { return "tok1" })
	defer ch.Disconnect()

	got := make(chan string, 1)
	ch.Subscribe(wstypes.EventTypeNewBookingRequest, func(msg *wstypes.WSMessage) {
		var data wstypes.BookingRequestData
		if msg.Bind(&data) == nil {
			got <- data.BookingID
		}
	})

	require.NoError(t, ch.Connect(context.Background(), "42"))
	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)

	s.goAway(t)

	require.Eventually(t, func() bool { return len(s.Joins()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"42", "42"}, s.Joins())
	assert.Equal(t, 2, s.Conns())
	s.mu.Lock()
	assert.Equal(t, []string{"tok1", "tok1"}, s.tokens)
	s.mu.Unlock()

	userID, ok := ch.Connected()
	assert.True(t, ok)
	assert.Equal(t, "42", userID)

	s.push(t, wstypes.NewMessage(wstypes.EventTypeNewBookingRequest, wstypes.BookingRequestData{BookingID: "b9"}))
	select {
	case id := <-got:
		assert.Equal(t, "b9", id)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription lost across reconnect")
	}
}

func TestServerClose_RedialsUntilServerIsBack(t *testing.T) {
	s := newSocketServer(t)
	ch := newRedialingChannel(s)
	defer ch.Disconnect()

	require.NoError(t, ch.Connect(context.Background(), "42"))
	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)

	s.Reject(true)
	s.goAway(t)

	require.Eventually(t, func() bool { return s.Dials() >= 3 }, 2*time.Second, 10*time.Millisecond)
	userID, ok := ch.Connected()
	assert.False(t, ok)
	assert.Equal(t, "42", userID)

	// still the same user, so nothing to do
	require.NoError(t, ch.Connect(context.Background(), "42"))

	s.Reject(false)
	require.Eventually(t, func() bool {
		_, ok := ch.Connected()
		return ok && len(s.Joins()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnect_StopsRedialing(t *testing.T) {
	s := newSocketServer(t)
	ch := newRedialingChannel(s)

	require.NoError(t, ch.Connect(context.Background(), "42"))
	require.Eventually(t, func() bool { return len(s.Joins()) == 1 }, time.Second, 10*time.Millisecond)

	s.Reject(true)
	s.goAway(t)
	require.Eventually(t, func() bool { return s.Dials() >= 2 }, 2*time.Second, 10*time.Millisecond)

	ch.Disconnect()
	dials := s.Dials()
	_, ok := ch.Connected()
	assert.False(t, ok)

	// at most a request already in flight when Disconnect ran
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, s.Dials(), dials+1)
}
