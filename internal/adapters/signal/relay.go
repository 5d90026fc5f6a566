package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/app/orch"
	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

// handleRelay forwards an opaque signal blob either to one named peer or to
// every other room member. Only the presence of the blob matters; its
// contents are never inspected.
func (ctl *Controller) handleRelay(id domain.ClientID, c core.SignalConnection, raw json.RawMessage) {
	var p SignalPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn().Err(err).Str("module", "signal").Msg("bad signal payload")
			ctl.sendError(id, c, ErrorPayload{Message: "bad payload"})
			return
		}
	}
	if p.RoomID == "" || len(p.Signal) == 0 {
		ctl.sendError(id, c, ErrorPayload{Message: "roomId and signal are required"})
		return
	}

	roomID := domain.NormalizeRoomID(p.RoomID)
	var target *domain.ClientID
	if p.TargetClientID != "" {
		t := domain.ClientID(p.TargetClientID)
		target = &t
	}

	recipients, err := ctl.Orch.Route(id, roomID, target)
	if err != nil {
		switch {
		case errors.Is(err, orch.ErrNotInRoom):
			ctl.sendError(id, c, ErrorPayload{Message: "not a member of room"})
		case errors.Is(err, orch.ErrUnknownTarget):
			ctl.sendError(id, c, ErrorPayload{Message: "target is not a member of room"})
		default:
			log.Error().Err(err).Str("module", "signal").Str("client", string(id)).Msg("route failed")
			ctl.sendError(id, c, ErrorPayload{Message: "relay failed"})
		}
		return
	}

	ctl.sendToPeers(recipients, TypeSignal, SignalRelayPayload{
		RoomID:   string(roomID),
		SenderID: string(id),
		Signal:   p.Signal,
	})
}
