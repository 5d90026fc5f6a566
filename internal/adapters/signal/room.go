package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/app"
	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

func (ctl *Controller) handleJoin(id domain.ClientID, c core.SignalConnection, raw json.RawMessage) {
	var p JoinPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
			ctl.sendError(id, c, ErrorPayload{Message: "bad payload"})
			return
		}
	}
	if p.RoomID == "" || p.Mode == "" {
		ctl.sendError(id, c, ErrorPayload{Message: "roomId and mode are required"})
		return
	}

	roomID := domain.NormalizeRoomID(p.RoomID)
	mode := domain.NormalizeMode(p.Mode)
	role := domain.Role(p.Role)
	if role == "" {
		role = domain.DefaultRole(mode)
	}

	res, dep, err := ctl.Orch.Join(id, roomID, mode, role)
	if dep != nil && len(dep.Remaining) > 0 {
		ctl.sendToPeers(dep.Remaining, TypePeerLeft, PeerLeftPayload{ClientID: string(id)})
	}
	if err != nil {
		var mc *app.ModeConflictError
		if errors.As(err, &mc) {
			ctl.sendError(id, c, ErrorPayload{
				Message:      "room mode mismatch",
				ExpectedMode: string(mc.Expected),
				ReceivedMode: string(mc.Received),
			})
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("client", string(id)).Msg("join failed")
		ctl.sendError(id, c, ErrorPayload{Message: "join failed"})
		return
	}

	participants := make([]ParticipantPayload, 0, len(res.Participants))
	others := make([]domain.ClientID, 0, len(res.Participants))
	for _, pt := range res.Participants {
		participants = append(participants, ParticipantPayload{ClientID: string(pt.ClientID), Role: string(pt.Role)})
		others = append(others, pt.ClientID)
	}

	// The joiner's confirmation goes out before anyone else hears about it,
	// so its view of "who is already here" never races its own join
	// notification.
	ctl.send(id, c, TypeRoomJoined, RoomJoinedPayload{
		RoomID:       string(res.Room),
		Mode:         string(res.Mode),
		Role:         string(res.Role),
		Participants: participants,
	})
	ctl.sendToPeers(others, TypePeerJoined, PeerJoinedPayload{ClientID: string(id), Role: string(res.Role)})
}

func (ctl *Controller) handleLeave(id domain.ClientID, c core.SignalConnection) {
	dep := ctl.Orch.Leave(id)
	ctl.send(id, c, TypeRoomLeft, struct{}{})
	if dep != nil && len(dep.Remaining) > 0 {
		ctl.sendToPeers(dep.Remaining, TypePeerLeft, PeerLeftPayload{ClientID: string(id)})
	}
}
