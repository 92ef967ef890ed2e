// internal/pkg/session/types.go
package session

import "ebeauty-client/internal/domain/auth"

// LoadState tracks the one-time restore from storage
type LoadState int

const (
	Loading LoadState = iota
	Ready
)

func (s LoadState) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// state is the manager-owned session. Token and User are always set and
// cleared together.
type state struct {
	token     string
	user      *auth.UserRecord
	loadState LoadState
}

// View is a read-only snapshot of the session handed to the navigation gate
// and the UI. User is a copy; mutating it has no effect on the session.
type View struct {
	Token     string
	User      *auth.UserRecord
	LoadState LoadState
}

// Authenticated reports whether the snapshot holds a token and its user
func (v View) Authenticated() bool {
	return v.Token != "" && v.User != nil
}

// Role returns the user's role, or "" when logged out
func (v View) Role() auth.Role {
	if v.User == nil {
		return ""
	}
	return v.User.Role
}

func (s state) view() View {
	v := View{Token: s.token, LoadState: s.loadState}
	if s.user != nil {
		u := *s.user
		v.User = &u
	}
	return v
}
