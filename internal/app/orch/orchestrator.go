// Package orch coordinates join/leave side effects across the connection
// registry and the room directory.
package orch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/app"
	"github.com/castkit/signalhub/internal/domain"
)

var (
	// ErrNotInRoom means the sender is not a member of the room it named.
	ErrNotInRoom = errors.New("not a member of room")
	// ErrUnknownTarget means the named target is not a member of the room.
	ErrUnknownTarget = errors.New("target is not a member of room")
	// ErrUnknownClient means the connection id is not registered (anymore).
	ErrUnknownClient = errors.New("unknown client")
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Directory

	// mu serializes compound join/leave transitions so "remove member,
	// delete room if empty" can never interleave with a concurrent join
	// to the same room id.
	mu sync.Mutex
}

func New(reg *app.Registry, rooms *app.Directory) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms}
}

// Participant is a read-only membership view (no transport fields).
type Participant struct {
	ClientID domain.ClientID
	Role     domain.Role
}

// JoinResult describes a completed join. Participants holds the other
// members present at join time.
type JoinResult struct {
	Room         domain.RoomID
	Mode         domain.Mode
	Role         domain.Role
	Participants []Participant
}

// Departure describes a completed leave: the room left and the members
// still in it who should be told.
type Departure struct {
	Room      domain.RoomID
	Remaining []domain.ClientID
}

// Join moves a connection into a room. A connection already in a different
// room is taken out of it first; joins are never additive across rooms.
// On mode conflict the returned error wraps *app.ModeConflictError and no
// membership changed for the requested room.
func (o *Orchestrator) Join(id domain.ClientID, roomID domain.RoomID, mode domain.Mode, role domain.Role) (JoinResult, *Departure, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cl, ok := o.Registry.Lookup(id)
	if !ok {
		return JoinResult{}, nil, ErrUnknownClient
	}

	var dep *Departure
	if cl.Room != "" && cl.Room != roomID {
		dep = o.leaveLocked(id)
	}

	if _, err := o.Rooms.GetOrCreate(roomID, mode); err != nil {
		return JoinResult{}, dep, err
	}

	others := o.participantsLocked(roomID, id)
	o.Rooms.AddMember(roomID, id)
	o.Registry.SetRoom(id, roomID, mode, role)
	log.Info().Str("module", "app.orch").Str("client", string(id)).Str("room", string(roomID)).
		Str("mode", string(mode)).Str("role", string(role)).Msg("joined room")

	return JoinResult{Room: roomID, Mode: mode, Role: role, Participants: others}, dep, nil
}

// Leave takes a connection out of its current room, if any. Returns nil
// when there was nothing to leave.
func (o *Orchestrator) Leave(id domain.ClientID) *Departure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.leaveLocked(id)
}

// Disconnect runs the terminal cleanup: room leave first, then registry
// removal. The order matters; cleanup reads room state off the connection
// before its identity disappears.
func (o *Orchestrator) Disconnect(id domain.ClientID) *Departure {
	o.mu.Lock()
	dep := o.leaveLocked(id)
	o.mu.Unlock()
	o.Registry.Unregister(id)
	return dep
}

func (o *Orchestrator) leaveLocked(id domain.ClientID) *Departure {
	cl, ok := o.Registry.Lookup(id)
	if !ok || cl.Room == "" {
		return nil
	}
	remaining := o.Rooms.RemoveMember(cl.Room, id)
	dep := &Departure{Room: cl.Room}
	if remaining > 0 {
		dep.Remaining = o.Rooms.Members(cl.Room)
	}
	o.Registry.ClearRoom(id)
	log.Info().Str("module", "app.orch").Str("client", string(id)).Str("room", string(cl.Room)).
		Int("remaining", remaining).Msg("left room")
	return dep
}

// participantsLocked lists the room's current members with their roles,
// excluding cid. A member id the registry no longer knows is treated as
// already gone and skipped.
func (o *Orchestrator) participantsLocked(roomID domain.RoomID, cid domain.ClientID) []Participant {
	members := o.Rooms.Members(roomID)
	out := make([]Participant, 0, len(members))
	for _, mid := range members {
		if mid == cid {
			continue
		}
		mc, ok := o.Registry.Lookup(mid)
		if !ok {
			continue
		}
		out = append(out, Participant{ClientID: mid, Role: mc.Role})
	}
	return out
}

// Route resolves the recipients of a signal. The sender must be a current
// member of roomID; a non-nil target must be one too, and then is the sole
// recipient. Without a target the recipients are every other member.
func (o *Orchestrator) Route(sender domain.ClientID, roomID domain.RoomID, target *domain.ClientID) ([]domain.ClientID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cl, ok := o.Registry.Lookup(sender)
	if !ok || cl.Room != roomID || !o.Rooms.Contains(roomID, sender) {
		return nil, ErrNotInRoom
	}

	if target != nil {
		if !o.Rooms.Contains(roomID, *target) {
			return nil, ErrUnknownTarget
		}
		return []domain.ClientID{*target}, nil
	}

	members := o.Rooms.Members(roomID)
	out := make([]domain.ClientID, 0, len(members))
	for _, mid := range members {
		if mid != sender {
			out = append(out, mid)
		}
	}
	return out, nil
}
