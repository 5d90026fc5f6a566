package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id domain.ClientID, c *WsConn, cancel context.CancelFunc) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", string(id)).Msg("readPump closing")
		ctl.disconnect(id)
		cancel()
		c.Close()
	}()

	pongWait := ctl.pingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(id, c, data)
		}
	}
}

// handleMessage parses one inbound envelope and dispatches it. Malformed
// input answers the sender only; it never reaches other clients and never
// tears the connection down.
func (ctl *Controller) handleMessage(id domain.ClientID, c core.SignalConnection, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("bad message")
		ctl.sendError(id, c, ErrorPayload{Message: "bad message"})
		return
	}

	switch env.Type {
	case TypeJoinRoom:
		ctl.handleJoin(id, c, env.Payload)
	case TypeSignal:
		ctl.handleRelay(id, c, env.Payload)
	case TypeLeaveRoom:
		ctl.handleLeave(id, c)
	case TypePing:
		ctl.handlePing(id, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unsupported type")
		ctl.sendError(id, c, ErrorPayload{Message: "unsupported type", Type: env.Type})
	}
}

// disconnect runs the terminal cleanup path shared by deliberate closes and
// transport errors.
func (ctl *Controller) disconnect(id domain.ClientID) {
	dep := ctl.Orch.Disconnect(id)
	if dep != nil && len(dep.Remaining) > 0 {
		ctl.sendToPeers(dep.Remaining, TypePeerLeft, PeerLeftPayload{ClientID: string(id)})
	}
}

func (ctl *Controller) send(id domain.ClientID, c core.SignalConnection, typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("marshal payload")
		return
	}
	b, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("marshal envelope")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Str("type", typ).Msg("send skipped")
	}
}

func (ctl *Controller) sendError(id domain.ClientID, c core.SignalConnection, p ErrorPayload) {
	ctl.send(id, c, TypeError, p)
}
