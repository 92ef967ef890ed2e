package navigation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ebeauty-client/internal/domain/auth"
	wstypes "ebeauty-client/internal/domain/websocket"
	"ebeauty-client/internal/navigation"
	"ebeauty-client/internal/notify"
	"ebeauty-client/internal/pkg/credential"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/session"
)

// ========== Fakes ==========

type stubAPI struct {
	users map[string]auth.UserRecord
}

func (a stubAPI) Login(_ context.Context, email, password string) (*auth.LoginResponse, error) {
	user, ok := a.users[email]
	if !ok || password != "password" {
		return nil, xerrors.Display("Invalid credentials", xerrors.ErrUnauthorized)
	}
	return &auth.LoginResponse{Token: "tok-" + user.ID, User: user}, nil
}

type nopChannel struct{}

func (nopChannel) Connect(context.Context, string) error { return nil }
func (nopChannel) Disconnect()                           {}

// subscriptions counts live handlers per event
type subscriptions struct {
	mu     sync.Mutex
	active map[wstypes.EventType]int
}

func (s *subscriptions) Subscribe(event wstypes.EventType, _ notify.Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[wstypes.EventType]int)
	}
	s.active[event]++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.active[event]--
			s.mu.Unlock()
		})
	}
}

func (s *subscriptions) Active(event wstypes.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[event]
}

type harness struct {
	kv      *credential.MemoryKV
	manager *session.Manager
	subs    *subscriptions
	nav     *navigation.Navigator
}

func newHarness(t *testing.T, kv *credential.MemoryKV) *harness {
	t.Helper()
	if kv == nil {
		kv = credential.NewMemoryKV()
	}
	api := stubAPI{users: map[string]auth.UserRecord{
		"client@test.com":  {ID: "1", Email: "client@test.com", Role: auth.RoleClient},
		"client2@test.com": {ID: "4", Email: "client2@test.com", Role: auth.RoleClient},
		"artist@test.com":  {ID: "2", Email: "artist@test.com", Role: auth.RoleArtist},
		"odd@test.com":     {ID: "9", Email: "odd@test.com", Role: "superuser"},
	}}
	h := &harness{kv: kv, subs: &subscriptions{}}
	h.manager = session.NewManager(credential.NewStore(kv, nil), api, nopChannel{}, nil, zap.NewNop())
	h.nav = navigation.NewNavigator(h.manager, h.subs, zap.NewNop())
	t.Cleanup(h.nav.Close)
	return h
}

func current(t *testing.T, n *navigation.Navigator) (navigation.Graph, navigation.Screen) {
	t.Helper()
	g, s, err := n.Current()
	require.NoError(t, err)
	return g, s
}

// ========== Scenarios ==========

func TestNavigator_SplashUntilRestored(t *testing.T) {
	h := newHarness(t, nil)

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphSplash, g)
	assert.Equal(t, navigation.ScreenSplash, s)
}

/*
TestNavigator_ColdStartLoggedOut: empty storage lands on the public graph.
*/
func TestNavigator_ColdStartLoggedOut(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.Restore(context.Background())

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphPublic, g)
	assert.Equal(t, navigation.ScreenHome, s)
}

/*
TestNavigator_ColdStartArtist: a stored artist session lands on the artist graph.
*/
func TestNavigator_ColdStartArtist(t *testing.T) {
	kv := credential.NewMemoryKV()
	require.NoError(t, credential.NewStore(kv, nil).Write(context.Background(), "tok1",
		auth.UserRecord{ID: "42", Role: auth.RoleArtist}))

	h := newHarness(t, kv)
	h.manager.Restore(context.Background())

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphArtist, g)
	assert.Equal(t, navigation.ScreenArtistHome, s)
}

/*
TestNavigator_FailedLoginStaysPublic keeps the login screen and its state.
*/
func TestNavigator_FailedLoginStaysPublic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)

	require.NoError(t, h.nav.Push(navigation.ScreenLogin))
	require.NoError(t, h.nav.SetState("email", "bad@test.com"))

	_, err := h.manager.Login(ctx, "bad@test.com", "wrong")
	require.Error(t, err)

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphPublic, g)
	assert.Equal(t, navigation.ScreenLogin, s)
	email, ok := h.nav.State("email")
	assert.True(t, ok)
	assert.Equal(t, "bad@test.com", email)
}

/*
TestNavigator_LogoutDiscardsArtistScreens: the artist's screens and their
booking subscriptions are gone once the session ends.
*/
func TestNavigator_LogoutDiscardsArtistScreens(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)

	_, err := h.manager.Login(ctx, "artist@test.com", "password")
	require.NoError(t, err)

	require.NoError(t, h.nav.SubscribeOnScreen(navigation.ScreenArtistHome, wstypes.EventTypeNewBookingRequest, func(*wstypes.WSMessage) {}))
	require.NoError(t, h.nav.Push(navigation.ScreenMyServices))
	require.NoError(t, h.nav.SetState("draft", "Gel Manicure"))
	assert.Equal(t, 1, h.subs.Active(wstypes.EventTypeNewBookingRequest))

	require.NoError(t, h.manager.Logout(ctx))

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphPublic, g)
	assert.Equal(t, navigation.ScreenHome, s)
	assert.Equal(t, []navigation.Screen{navigation.ScreenHome}, h.nav.Stack())
	assert.Zero(t, h.subs.Active(wstypes.EventTypeNewBookingRequest))

	_, ok := h.nav.State("draft")
	assert.False(t, ok)
}

func TestNavigator_LoginSwitchesGraph(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)

	var (
		mu     sync.Mutex
		graphs []navigation.Graph
	)
	h.nav.OnGraphChange(func(g navigation.Graph, err error) {
		mu.Lock()
		graphs = append(graphs, g)
		mu.Unlock()
	})

	require.NoError(t, h.nav.Push(navigation.ScreenLogin))
	_, err := h.manager.Login(ctx, "client@test.com", "password")
	require.NoError(t, err)

	g, s := current(t, h.nav)
	assert.Equal(t, navigation.GraphClient, g)
	assert.Equal(t, navigation.ScreenClientHome, s)

	mu.Lock()
	assert.Equal(t, []navigation.Graph{navigation.GraphClient}, graphs)
	mu.Unlock()
}

func TestNavigator_UserChangeSameGraphResets(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)

	_, err := h.manager.Login(ctx, "client@test.com", "password")
	require.NoError(t, err)
	require.NoError(t, h.nav.Push(navigation.ScreenBookingForm))
	require.NoError(t, h.nav.SetState("address", "1 Main St"))

	_, err = h.manager.Login(ctx, "client2@test.com", "password")
	require.NoError(t, err)

	assert.Equal(t, []navigation.Screen{navigation.ScreenClientHome}, h.nav.Stack())
	_, ok := h.nav.State("address")
	assert.False(t, ok)
}

func TestNavigator_InvalidRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)

	_, err := h.manager.Login(ctx, "odd@test.com", "password")
	require.NoError(t, err)

	_, _, err = h.nav.Current()
	assert.ErrorIs(t, err, xerrors.ErrInvalidRole)
	assert.ErrorIs(t, h.nav.Push(navigation.ScreenHome), xerrors.ErrInvalidRole)
	assert.Empty(t, h.nav.Stack())

	// recoverable by logging out
	require.NoError(t, h.manager.Logout(ctx))
	g, _ := current(t, h.nav)
	assert.Equal(t, navigation.GraphPublic, g)
}

// ========== Stack ==========

func TestNavigator_PushPop(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.Restore(context.Background())

	require.NoError(t, h.nav.Push(navigation.ScreenArtistList))
	require.NoError(t, h.nav.Push(navigation.ScreenArtistDetail))
	assert.Equal(t, []navigation.Screen{
		navigation.ScreenHome, navigation.ScreenArtistList, navigation.ScreenArtistDetail,
	}, h.nav.Stack())

	err := h.nav.Push(navigation.ScreenBookingForm)
	assert.ErrorIs(t, err, xerrors.ErrNoRoute)

	require.NoError(t, h.nav.Pop())
	require.NoError(t, h.nav.Pop())
	assert.ErrorIs(t, h.nav.Pop(), xerrors.ErrNoRoute)
	assert.Equal(t, []navigation.Screen{navigation.ScreenHome}, h.nav.Stack())
}

func TestNavigator_PopReleasesScreenSubscriptions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.manager.Restore(ctx)
	_, err := h.manager.Login(ctx, "client@test.com", "password")
	require.NoError(t, err)

	require.NoError(t, h.nav.Push(navigation.ScreenBookingForm))
	handler := func(*wstypes.WSMessage) {}
	require.NoError(t, h.nav.SubscribeOnScreen(navigation.ScreenBookingForm, wstypes.EventTypeBookingStatus, handler))
	assert.Equal(t, 1, h.subs.Active(wstypes.EventTypeBookingStatus))

	require.NoError(t, h.nav.Pop())
	assert.Zero(t, h.subs.Active(wstypes.EventTypeBookingStatus))

	// remount registers exactly one handler again
	require.NoError(t, h.nav.Push(navigation.ScreenBookingForm))
	require.NoError(t, h.nav.SubscribeOnScreen(navigation.ScreenBookingForm, wstypes.EventTypeBookingStatus, handler))
	assert.Equal(t, 1, h.subs.Active(wstypes.EventTypeBookingStatus))

	err = h.nav.SubscribeOnScreen(navigation.ScreenArtistDetail, wstypes.EventTypeBookingStatus, handler)
	assert.ErrorIs(t, err, xerrors.ErrNoRoute)
}

// racingSource delivers a transition while its current view is being read
type racingSource struct {
	mu       sync.Mutex
	watchers []func(session.View)
	next     session.View
}

func (s *racingSource) View() session.View {
	s.mu.Lock()
	watchers := append([]func(session.View){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(s.next)
	}
	return session.View{LoadState: session.Loading}
}

func (s *racingSource) Watch(fn func(session.View)) func() {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
	return func() {}
}

func TestNavigator_TransitionDuringConstruction(t *testing.T) {
	src := &racingSource{next: session.View{
		Token:     "tok1",
		User:      &auth.UserRecord{ID: "42", Role: auth.RoleArtist},
		LoadState: session.Ready,
	}}

	nav := navigation.NewNavigator(src, &subscriptions{}, zap.NewNop())
	defer nav.Close()

	g, s := current(t, nav)
	assert.Equal(t, navigation.GraphArtist, g)
	assert.Equal(t, navigation.ScreenArtistHome, s)
}
