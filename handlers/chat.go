package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/session"
	"github.com/vinodyk/patient-appointments/services/workflow"
	"github.com/vinodyk/patient-appointments/utils"
)

// ChatHandler runs patient messages through the workflow pipeline.
type ChatHandler struct {
	Orchestrator *workflow.Orchestrator
	Sessions     session.Store
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(orc *workflow.Orchestrator, store session.Store) *ChatHandler {
	return &ChatHandler{Orchestrator: orc, Sessions: store}
}

// ChatHandler handles POST /api/chat: one patient message in, one
// consolidated workflow response out.
func (ch *ChatHandler) ChatHandler(c *gin.Context) {
	var req models.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: message is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := c.Request.Context()

	sess, err := ch.Sessions.Get(ctx, req.SessionID)
	if err != nil {
		utils.GetLogger().Error("Failed to load session context", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	resp, updated, err := ch.Orchestrator.ProcessTurn(ctx, req, sess)
	if err != nil {
		// A failed turn leaves the stored context untouched; the patient
		// gets an apology in the same shape as a normal reply, not an
		// error status the frontend would have to special-case.
		utils.GetLogger().Error("Workflow turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusOK, models.AppointmentResponse{
			Message:        "I apologize, but I ran into a problem processing your message. Please try again.",
			AgentResponses: []models.AgentResponse{},
			AvailableSlots: []models.Slot{},
			NextSteps:      []string{"Please try again", "Contact support if the problem persists"},
			SessionID:      req.SessionID,
		})
		return
	}

	updated.AppendTurn(models.TurnRecord{
		UserMessage:       req.Message,
		AssistantResponse: resp.Message,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		AgentResponses:    resp.AgentResponses,
	})
	if err := ch.Sessions.Put(ctx, req.SessionID, updated); err != nil {
		// Persisting the context is best-effort; the turn already
		// succeeded and the patient gets their answer.
		utils.GetLogger().Warn("Failed to persist session context", zap.String("session_id", req.SessionID), zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}
