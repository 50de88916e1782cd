package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"wagerledger/service"
)

// AdvanceClockRequest moves a manual clock forward
type AdvanceClockRequest struct {
	Seconds int64 `json:"seconds" binding:"required,min=1"`
}

// ClockHandler exposes a manual clock on development deployments
type ClockHandler struct {
	clock *service.ManualClock
}

func NewClockHandler(clock *service.ManualClock) *ClockHandler {
	return &ClockHandler{clock: clock}
}

func (h *ClockHandler) Get(c *gin.Context) {
	now := h.clock.Now()
	c.JSON(http.StatusOK, gin.H{"now": now, "unix": now.Unix()})
}

func (h *ClockHandler) Advance(c *gin.Context) {
	var req AdvanceClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	h.clock.Advance(time.Duration(req.Seconds) * time.Second)
	now := h.clock.Now()
	log.WithField("now", now).Info("Manual clock advanced")

	c.JSON(http.StatusOK, gin.H{"now": now, "unix": now.Unix()})
}
