// internal/navigation/navigator.go
package navigation

import (
	"fmt"
	"sync"

	wstypes "ebeauty-client/internal/domain/websocket"
	"ebeauty-client/internal/notify"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/session"

	"go.uber.org/zap"
)

// SessionSource is the part of session.Manager the navigator follows
type SessionSource interface {
	View() session.View
	Watch(fn func(session.View)) (cancel func())
}

// Subscriber is the part of notify.Channel screens listen on
type Subscriber interface {
	Subscribe(event wstypes.EventType, handler notify.Handler) (unsubscribe func())
}

type entry struct {
	screen Screen
	state  map[string]interface{}
	unsubs []func()
}

func (e *entry) release() {
	for _, unsub := range e.unsubs {
		unsub()
	}
	e.unsubs = nil
}

// Navigator holds the active graph and its screen stack. It follows the
// session and rebuilds the stack whenever the selected graph or the
// signed-in user changes.
type Navigator struct {
	channel Subscriber
	logger  *zap.Logger

	mu     sync.Mutex
	graph  Graph
	userID string
	err    error
	stack  []*entry

	listeners []func(Graph, error)
	cancel    func()

	// followMu orders the initial view against transitions delivered by Watch
	followMu sync.Mutex
	followed bool
}

func NewNavigator(src SessionSource, channel Subscriber, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Navigator{channel: channel, logger: logger}
	n.cancel = src.Watch(n.follow)

	v := src.View()
	n.followMu.Lock()
	if !n.followed {
		n.apply(v)
	}
	n.followMu.Unlock()
	return n
}

func (n *Navigator) follow(v session.View) {
	n.followMu.Lock()
	defer n.followMu.Unlock()
	n.followed = true
	n.apply(v)
}

// OnGraphChange registers fn to run after the active graph is replaced
func (n *Navigator) OnGraphChange(fn func(Graph, error)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Close stops following the session and releases every screen
func (n *Navigator) Close() {
	if n.cancel != nil {
		n.cancel()
	}
	n.mu.Lock()
	n.discardLocked()
	n.mu.Unlock()
}

// Current returns the active graph and top screen, or the gating error
func (n *Navigator) Current() (Graph, Screen, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	top, err := n.topLocked()
	if err != nil {
		return "", "", err
	}
	return n.graph, top.screen, nil
}

// Stack returns the screens from root to top
func (n *Navigator) Stack() []Screen {
	n.mu.Lock()
	defer n.mu.Unlock()

	screens := make([]Screen, 0, len(n.stack))
	for _, e := range n.stack {
		screens = append(screens, e.screen)
	}
	return screens
}

func (n *Navigator) Push(screen Screen) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	if !n.graph.Reachable(screen) {
		return fmt.Errorf("%w: %s from %s", xerrors.ErrNoRoute, screen, n.graph)
	}
	n.stack = append(n.stack, &entry{screen: screen, state: make(map[string]interface{})})
	return nil
}

// Pop removes the top screen along with its state and subscriptions
func (n *Navigator) Pop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	if len(n.stack) <= 1 {
		return fmt.Errorf("%w: already at %s root", xerrors.ErrNoRoute, n.graph)
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	top.release()
	return nil
}

// SetState stores a value on the top screen
func (n *Navigator) SetState(key string, value interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	top, err := n.topLocked()
	if err != nil {
		return err
	}
	top.state[key] = value
	return nil
}

func (n *Navigator) State(key string) (interface{}, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	top, err := n.topLocked()
	if err != nil {
		return nil, false
	}
	v, ok := top.state[key]
	return v, ok
}

// SubscribeOnScreen ties a channel subscription to the topmost instance of
// screen on the stack. It is released when that screen is popped or the
// graph is replaced.
func (n *Navigator) SubscribeOnScreen(screen Screen, event wstypes.EventType, handler notify.Handler) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i].screen == screen {
			n.stack[i].unsubs = append(n.stack[i].unsubs, n.channel.Subscribe(event, handler))
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not on the stack", xerrors.ErrNoRoute, screen)
}

func (n *Navigator) apply(v session.View) {
	graph, err := Select(v)

	var userID string
	if v.User != nil {
		userID = v.User.ID
	}

	n.mu.Lock()
	if err == nil && n.err == nil && graph == n.graph && userID == n.userID && len(n.stack) > 0 {
		n.mu.Unlock()
		return
	}

	previous := n.graph
	n.discardLocked()
	n.userID = userID

	if err != nil {
		n.graph, n.err = "", err
		n.logger.Error("no navigation graph for session", zap.String("user_id", userID), zap.Error(err))
	} else {
		n.graph, n.err = graph, nil
		n.stack = []*entry{{screen: graph.Root(), state: make(map[string]interface{})}}
		n.logger.Debug("navigation graph selected",
			zap.String("from", string(previous)),
			zap.String("to", string(graph)),
		)
	}
	listeners := append([]func(Graph, error){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(graph, err)
	}
}

func (n *Navigator) topLocked() (*entry, error) {
	if n.err != nil {
		return nil, n.err
	}
	if len(n.stack) == 0 {
		return nil, fmt.Errorf("%w: navigator closed", xerrors.ErrNoRoute)
	}
	return n.stack[len(n.stack)-1], nil
}

func (n *Navigator) discardLocked() {
	for i := len(n.stack) - 1; i >= 0; i-- {
		n.stack[i].release()
	}
	n.stack = nil
}
