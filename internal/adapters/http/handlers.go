package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/castkit/signalhub/internal/app"
	"github.com/castkit/signalhub/internal/app/turn"
)

// handleICE serves ephemeral TURN credentials. The only surfaced failure is
// the missing signing secret; a malformed uid is sanitized by the issuer,
// never rejected.
func handleICE(issuer *turn.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, err := issuer.Credentials(c.Query("uid"))
		if err != nil {
			if errors.Is(err, turn.ErrNoSecret) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "TURN_SECRET not set"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("credential issue failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, cred)
	}
}

type callResponse struct {
	RoomID string `json:"roomId"`
	URL    string `json:"url"`
}

// handleAllocateCall hands out a fresh room id plus its shareable link. The
// room itself is created lazily when the first peer joins over WS.
func handleAllocateCall(publicURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := uuid.NewString()
		c.JSON(http.StatusOK, callResponse{
			RoomID: roomID,
			URL:    fmt.Sprintf("%s/call/%s", publicURL, roomID),
		})
	}
}

func handleListRooms(rooms *app.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms.List()})
	}
}
