package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vinodyk/patient-appointments/handlers"
	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/routes"
	"github.com/vinodyk/patient-appointments/services/session"
	"github.com/vinodyk/patient-appointments/services/workflow"
	"github.com/vinodyk/patient-appointments/utils"
)

func testRouter(t *testing.T) (*gin.Engine, session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := session.NewMemoryStore(16)
	require.NoError(t, err)

	// A nil completion client runs the full pipeline on the rule engines
	// alone, which keeps the HTTP tests deterministic.
	orc := workflow.New(nil)

	r := gin.New()
	routes.RegisterHealthRoute(r)
	routes.RegisterChatRoutes(r, handlers.NewChatHandler(orc, store), handlers.NewSessionHandler(store))
	return r, store
}

func postChat(t *testing.T, r *gin.Engine, body models.PatientRequest) (*httptest.ResponseRecorder, models.AppointmentResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp models.AppointmentResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestChatEndpoint_MedicalMessageReturnsSlots(t *testing.T) {
	r, _ := testRouter(t)

	w, resp := postChat(t, r, models.PatientRequest{Message: "I have a fever and a headache"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotEmpty(t, resp.SessionID, "server assigns a session id when none is sent")
	assert.NotEmpty(t, resp.AvailableSlots)
	assert.NotEmpty(t, resp.NextSteps)
	assert.False(t, resp.RequiresEmergency)
}

func TestChatEndpoint_MissingMessageRejected(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint_SessionCarriesAcrossRequests(t *testing.T) {
	r, store := testRouter(t)

	w, first := postChat(t, r, models.PatientRequest{Message: "I have a fever, what times do you have available", SessionID: "sess-http-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, first.AvailableSlots)

	w, second := postChat(t, r, models.PatientRequest{Message: "book option 1", SessionID: "sess-http-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, second.Booking)
	assert.Equal(t, first.AvailableSlots[0].Doctor, second.Booking.Doctor)

	stored, err := store.Get(context.Background(), "sess-http-1")
	require.NoError(t, err)
	assert.Len(t, stored.ConversationHistory, 2)
}

func TestSessionEndpoints_GetAndDelete(t *testing.T) {
	r, _ := testRouter(t)

	w, _ := postChat(t, r, models.PatientRequest{Message: "I have a sore throat", SessionID: "sess-http-2"})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session/sess-http-2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sore throat")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/session/sess-http-2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session/sess-http-2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sore throat", "cleared session starts fresh")
}

// failingStore errors on every operation, standing in for an unreachable
// Redis backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*models.SessionContext, error) {
	return nil, errors.New("session backend unavailable")
}

func (failingStore) Put(context.Context, string, *models.SessionContext) error {
	return errors.New("session backend unavailable")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("session backend unavailable")
}

// failingClient errors on every completion call.
type failingClient struct{}

func (failingClient) Complete(context.Context, string, string, string) (string, error) {
	return "", errors.New("completion backend unavailable")
}

// captureLogs routes the shared logger into an observer core for the
// duration of the test.
func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, observed := observer.New(zapcore.WarnLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })
	return observed
}

func TestChatEndpoint_SessionLoadFailureIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observed := captureLogs(t)

	r := gin.New()
	routes.RegisterChatRoutes(r,
		handlers.NewChatHandler(workflow.New(nil), failingStore{}),
		handlers.NewSessionHandler(failingStore{}))

	w, _ := postChat(t, r, models.PatientRequest{Message: "I have a fever", SessionID: "sess-err-1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := observed.FilterMessage("Failed to load session context")
	require.Equal(t, 1, logs.Len(), "the failure must reach the configured logger")
	assert.Equal(t, "sess-err-1", logs.All()[0].ContextMap()["session_id"])
}

func TestChatEndpoint_FailedTurnDegradesGracefully(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observed := captureLogs(t)

	store, err := session.NewMemoryStore(16)
	require.NoError(t, err)

	r := gin.New()
	routes.RegisterChatRoutes(r,
		handlers.NewChatHandler(workflow.New(failingClient{}), store),
		handlers.NewSessionHandler(store))

	w, resp := postChat(t, r, models.PatientRequest{Message: "I have a fever", SessionID: "sess-err-2"})

	// The patient still gets a normal reply, apologetic but in the usual
	// shape, rather than an error status.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Message, "apologize")
	assert.Empty(t, resp.AvailableSlots)
	assert.Equal(t, "sess-err-2", resp.SessionID)

	assert.Equal(t, 1, observed.FilterMessage("Workflow turn failed").Len())

	stored, err := store.Get(context.Background(), "sess-err-2")
	require.NoError(t, err)
	assert.Empty(t, stored.ConversationHistory, "a failed turn is not recorded")
}

func TestHealthAndAgentStatusEndpoints(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/agents/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{"Security Agent", "Intake Agent", "Triage Agent", "Comorbidity Agent", "Appointment Booker"} {
		assert.Contains(t, w.Body.String(), name)
	}
}
