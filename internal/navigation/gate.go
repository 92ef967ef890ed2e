// internal/navigation/gate.go
package navigation

import (
	"fmt"

	"ebeauty-client/internal/domain/auth"
	xerrors "ebeauty-client/internal/pkg/errors"
	"ebeauty-client/internal/pkg/session"
)

// Select picks the graph for a session snapshot. It is pure and total over
// valid input; a logged-in user with a role outside client/artist/admin is
// a configuration error and never falls back to a default graph.
func Select(v session.View) (Graph, error) {
	if v.LoadState == session.Loading {
		return GraphSplash, nil
	}
	if v.Token == "" {
		return GraphPublic, nil
	}

	switch v.Role() {
	case auth.RoleClient:
		return GraphClient, nil
	case auth.RoleArtist:
		return GraphArtist, nil
	case auth.RoleAdmin:
		return GraphAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", xerrors.ErrInvalidRole, v.Role())
}
