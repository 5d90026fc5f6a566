package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/domain"
)

// ModeConflictError reports a join against an existing room whose mode does
// not match the request. The room is left untouched.
type ModeConflictError struct {
	Room     domain.RoomID
	Expected domain.Mode
	Received domain.Mode
}

func (e *ModeConflictError) Error() string {
	return fmt.Sprintf("room %s is a %s room, got mode %s", e.Room, e.Expected, e.Received)
}

type roomState struct {
	mode    domain.Mode
	members map[domain.ClientID]struct{}
}

// Directory tracks rooms and their membership. A room with zero members does
// not exist: RemoveMember deletes it the instant the set empties, and every
// compound check-then-mutate runs under the one directory lock so a
// concurrent join can never observe a deleted-but-referenced room.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*roomState)}
}

// GetOrCreate returns the room's mode, creating the room lazily. An existing
// room with a different mode yields a ModeConflictError and no mutation.
func (d *Directory) GetOrCreate(id domain.RoomID, mode domain.Mode) (domain.Mode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.rooms[id]; ok {
		if st.mode != mode {
			return st.mode, &ModeConflictError{Room: id, Expected: st.mode, Received: mode}
		}
		return st.mode, nil
	}
	d.rooms[id] = &roomState{mode: mode, members: make(map[domain.ClientID]struct{})}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("mode", string(mode)).Msg("room created")
	return mode, nil
}

// AddMember is idempotent; adding a present member is a no-op.
func (d *Directory) AddMember(id domain.RoomID, cid domain.ClientID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[id]
	if !ok {
		return
	}
	st.members[cid] = struct{}{}
}

// RemoveMember drops cid from the room and returns the member count after
// removal. Zero means the room itself was deleted.
func (d *Directory) RemoveMember(id domain.RoomID, cid domain.ClientID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rooms[id]
	if !ok {
		return 0
	}
	delete(st.members, cid)
	remaining := len(st.members)
	if remaining == 0 {
		delete(d.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
	}
	return remaining
}

// Members returns a snapshot of the room's membership.
func (d *Directory) Members(id domain.RoomID) []domain.ClientID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.rooms[id]
	if !ok {
		return nil
	}
	out := make([]domain.ClientID, 0, len(st.members))
	for cid := range st.members {
		out = append(out, cid)
	}
	return out
}

func (d *Directory) Contains(id domain.RoomID, cid domain.ClientID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.rooms[id]
	if !ok {
		return false
	}
	_, ok = st.members[cid]
	return ok
}

func (d *Directory) MemberCount(id domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if st, ok := d.rooms[id]; ok {
		return len(st.members)
	}
	return 0
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	Mode        domain.Mode   `json:"mode"`
	MemberCount int           `json:"memberCount"`
}

func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, st := range d.rooms {
		out = append(out, RoomInfo{ID: id, Mode: st.mode, MemberCount: len(st.members)})
	}
	return out
}
