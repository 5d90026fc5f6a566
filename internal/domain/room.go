package domain

import "strings"

const MaxRoomIDLen = 64

type RoomID string

// NormalizeRoomID canonicalizes a caller-supplied room identifier.
func NormalizeRoomID(raw string) RoomID {
	s := strings.TrimSpace(raw)
	if len(s) > MaxRoomIDLen {
		s = s[:MaxRoomIDLen]
	}
	return RoomID(s)
}

// Mode is a room's fixed category, set at creation.
type Mode string

const (
	ModeCall   Mode = "call"
	ModeStream Mode = "stream"
)

// NormalizeMode folds a caller-supplied mode string onto the closed set.
// Unrecognized values fold to ModeCall rather than being rejected; lenient
// clients depend on that.
func NormalizeMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeStream):
		return ModeStream
	default:
		return ModeCall
	}
}

type Room struct {
	ID   RoomID
	Mode Mode
}
