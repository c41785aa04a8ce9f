package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/middleware"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/rolesync"
)

const heartbeatInterval = 15 * time.Second

// Events streams reconciliation outcomes for the calling user over
// SSE. The browser listens here and performs the navigate or reload
// the syncer asks for. The subscription dies with the request; no
// outcome is delivered after the client goes away.
func (h *Handler) Events(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Buffered so a slow client cannot stall the syncer's emit path;
	// an overflowing feed drops events, the client resyncs via /me.
	outcomes := make(chan rolesync.Outcome, 8)
	stop := h.syncer.OnOutcome(func(o rolesync.Outcome) {
		if o.UserID != userID {
			return
		}
		select {
		case outcomes <- o:
		default:
		}
	})
	defer stop()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case o := <-outcomes:
			data, err := json.Marshal(o)
			if err != nil {
				return true
			}
			c.SSEvent("role", string(data))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
