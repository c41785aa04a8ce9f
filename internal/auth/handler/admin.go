package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/middleware"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/rolesync"
)

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole updates a user's role. Admin-only (enforced by the route
// guard in front of it). This is the write side of role sync: the
// change is persisted first, then announced on the bus and the Redis
// channel so the affected user's session reconciles everywhere.
func (h *Handler) ChangeRole(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	newRole, ok := authz.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	existing, err := h.profileStore.Get(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such profile"})
		return
	}

	if existing.Role == newRole {
		c.JSON(http.StatusOK, gin.H{"status": "unchanged", "role": newRole})
		return
	}

	if err := h.profileStore.UpdateRole(c.Request.Context(), targetID, newRole); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "role update failed"})
		return
	}

	// The stale cached profile must not outlive the write.
	h.profiles.Invalidate(targetID)

	ev := events.RoleChange{
		UserID:  targetID,
		OldRole: existing.Role,
		NewRole: newRole,
	}

	// In-process consumers first, then the cross-instance channel.
	h.bus.Publish(ev)

	if h.redis != nil {
		if err := rolesync.PublishRoleChange(c.Request.Context(), h.redis, ev); err != nil {
			// Local reconciliation already ran; other instances catch
			// up on the next profile load.
			logger.Warn("role change broadcast failed", map[string]any{
				"user_id": targetID,
				"error":   err.Error(),
			})
		}
	}

	adminID, _ := middleware.UserIDFromContext(c.Request.Context())
	logger.Info("role changed", map[string]any{
		"user_id":  targetID,
		"old_role": existing.Role,
		"new_role": newRole,
		"admin_id": adminID,
	})

	c.JSON(http.StatusOK, gin.H{
		"status":   "updated",
		"old_role": existing.Role,
		"role":     newRole,
	})
}
