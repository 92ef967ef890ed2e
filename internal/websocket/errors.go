// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRoomDenied   = errors.New("cannot join another user's room")
)
