package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vinodyk/patient-appointments/services/session"
	"github.com/vinodyk/patient-appointments/utils"
)

// SessionHandler exposes read and reset operations on stored sessions.
type SessionHandler struct {
	Sessions session.Store
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store session.Store) *SessionHandler {
	return &SessionHandler{Sessions: store}
}

// GetSessionHandler returns the stored context for a session, including
// its conversation history and any slots still on offer.
func (sh *SessionHandler) GetSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	sess, err := sh.Sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		utils.GetLogger().Error("Failed to fetch session", zap.String("session_id", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"context":    sess,
	})
}

// DeleteSessionHandler clears a session's stored context so the next
// message starts a fresh conversation.
func (sh *SessionHandler) DeleteSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if err := sh.Sessions.Delete(c.Request.Context(), sessionID); err != nil {
		utils.GetLogger().Error("Failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to delete session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared", "session_id": sessionID})
}
