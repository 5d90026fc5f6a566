package signal

import (
	"time"

	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

func (ctl *Controller) handlePing(id domain.ClientID, c core.SignalConnection) {
	ctl.send(id, c, TypePong, PongPayload{Timestamp: time.Now().UnixMilli()})
}
