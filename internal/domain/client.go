// Package domain contains entity without logic, just meta-data
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClientID string

// NewClientID allocates a fresh connection identity. Identifiers double as
// implicit authorization tokens in membership checks, so they must be
// unguessable, never sequential.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

type Role string

const (
	RoleParticipant Role = "participant"
	RoleViewer      Role = "viewer"
)

// DefaultRole picks the role for a join that did not name one.
// Stream rooms assume a passive viewer; everything else is a participant.
func DefaultRole(mode Mode) Role {
	if mode == ModeStream {
		return RoleViewer
	}
	return RoleParticipant
}

// Client is the per-connection state the registry tracks. Room, Mode and
// Role are empty while the connection is not in a room.
type Client struct {
	ID         ClientID
	Room       RoomID
	Mode       Mode
	Role       Role
	RemoteAddr string
	CreatedAt  time.Time
}
