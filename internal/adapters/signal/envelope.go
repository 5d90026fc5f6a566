package signal

import "encoding/json"

// Envelope is the wire unit in both directions: a type tag plus an
// optional payload. The payload stays raw until the handler for the type
// decodes it; the opaque signal body is never decoded at all.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> server types.
const (
	TypeJoinRoom  = "join-room"
	TypeSignal    = "signal"
	TypeLeaveRoom = "leave-room"
	TypePing      = "ping"
)

// Server -> client types.
const (
	TypeWelcome    = "welcome"
	TypeRoomJoined = "room-joined"
	TypePeerJoined = "peer-joined"
	TypePeerLeft   = "peer-left"
	TypeRoomLeft   = "room-left"
	TypePong       = "pong"
	TypeError      = "error"
)

type JoinPayload struct {
	RoomID string `json:"roomId"`
	Mode   string `json:"mode"`
	Role   string `json:"role,omitempty"`
}

type SignalPayload struct {
	RoomID         string          `json:"roomId"`
	TargetClientID string          `json:"targetClientId,omitempty"`
	Signal         json.RawMessage `json:"signal,omitempty"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
}

type ParticipantPayload struct {
	ClientID string `json:"clientId"`
	Role     string `json:"role"`
}

type RoomJoinedPayload struct {
	RoomID       string               `json:"roomId"`
	Mode         string               `json:"mode"`
	Role         string               `json:"role"`
	Participants []ParticipantPayload `json:"participants"`
}

type PeerJoinedPayload struct {
	ClientID string `json:"clientId"`
	Role     string `json:"role"`
}

type PeerLeftPayload struct {
	ClientID string `json:"clientId"`
}

type SignalRelayPayload struct {
	RoomID   string          `json:"roomId"`
	SenderID string          `json:"senderId"`
	Signal   json.RawMessage `json:"signal"`
}

type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorPayload always carries a message; the optional fields add context
// for specific failures.
type ErrorPayload struct {
	Message      string `json:"message"`
	Type         string `json:"type,omitempty"`
	ExpectedMode string `json:"expectedMode,omitempty"`
	ReceivedMode string `json:"receivedMode,omitempty"`
}
