package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/app/orch"
	"github.com/castkit/signalhub/internal/config"
	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Controller owns the WebSocket side of the signaling protocol: it accepts
// connections, runs their pumps and dispatches envelopes to handlers.
type Controller struct {
	Orch *orch.Orchestrator

	readLimit  int64
	pingPeriod time.Duration
}

func NewController(o *orch.Orchestrator, cfg *config.Config) *Controller {
	pp := cfg.PingPeriod
	if pp <= 0 {
		pp = 54 * time.Second
	}
	return &Controller{
		Orch:       o,
		readLimit:  cfg.ReadLimit,
		pingPeriod: pp,
	}
}

// WsConn wraps a websocket with a buffered outbound queue. TrySend never
// blocks; a full queue or a closed connection is a delivery failure the
// caller logs and skips.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection until it closes.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	id := ctl.Orch.Registry.Register(conn, c.ClientIP())
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.send(id, conn, TypeWelcome, WelcomePayload{ClientID: string(id)})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn, cancel)
}

// sendToPeers delivers an envelope to each identifier that still resolves
// to a live connection. Gone or stalled peers are logged and skipped; the
// loop never aborts.
func (ctl *Controller) sendToPeers(ids []domain.ClientID, typ string, payload any) {
	for _, id := range ids {
		conn, ok := ctl.Orch.Registry.Conn(id)
		if !ok {
			continue
		}
		ctl.send(id, conn, typ, payload)
	}
}
