package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/adapters/signal"
	"github.com/castkit/signalhub/internal/app/orch"
	"github.com/castkit/signalhub/internal/app/turn"
	"github.com/castkit/signalhub/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, issuer *turn.Issuer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	// Shareable call links all resolve to the web client; the room id is
	// picked up client-side.
	r.GET("/call/:roomId", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	r.GET("/ice", handleICE(issuer))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctl := signal.NewController(o, cfg)

	api := r.Group("/api")
	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})
	api.POST("/calls", handleAllocateCall(cfg.PublicURL))
	api.GET("/rooms", handleListRooms(o.Rooms))

	return r
}
