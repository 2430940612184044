package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodyk/patient-appointments/models"
)

func sampleContext() *models.SessionContext {
	sess := models.NewSessionContext()
	sess.ConversationStage = "gathering_details"
	sess.SymptomAnalysis = &models.SymptomAnalysis{
		Symptoms: []string{"fever", "cough"},
		Severity: models.PriorityMedium,
	}
	sess.AvailableSlots = []models.Slot{
		{Date: "2025-08-04", Time: "9:00 AM", Doctor: "Dr. Sarah Johnson", Specialty: "General Practice", Available: true},
	}
	sess.AppendTurn(models.TurnRecord{
		UserMessage:       "I have a fever and cough",
		AssistantResponse: "Let me find you an appointment",
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	})
	return sess
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, 30*time.Minute), mr
}

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	// Unknown session comes back as a fresh context, never nil.
	fresh, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "initial", fresh.ConversationStage)
	assert.True(t, fresh.IsMedical)

	// Round trip.
	saved := sampleContext()
	require.NoError(t, store.Put(ctx, "s1", saved))

	loaded, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "gathering_details", loaded.ConversationStage)
	require.NotNil(t, loaded.SymptomAnalysis)
	assert.Equal(t, []string{"fever", "cough"}, loaded.SymptomAnalysis.Symptoms)
	require.Len(t, loaded.AvailableSlots, 1)
	assert.Equal(t, "Dr. Sarah Johnson", loaded.AvailableSlots[0].Doctor)
	require.Len(t, loaded.ConversationHistory, 1)

	// Delete resets to fresh.
	require.NoError(t, store.Delete(ctx, "s1"))
	cleared, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cleared.ConversationHistory)
	assert.Equal(t, "initial", cleared.ConversationStage)
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newRedisStore(t)
	runStoreContract(t, store)
}

func TestRedisStore_TTLApplied(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", sampleContext()))
	ttl := mr.TTL("session:ctx:s1")
	assert.Equal(t, 30*time.Minute, ttl)

	mr.FastForward(31 * time.Minute)
	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.ConversationHistory, "expired session starts fresh")
}

func TestMemoryStore_Contract(t *testing.T) {
	store, err := NewMemoryStore(16)
	require.NoError(t, err)
	runStoreContract(t, store)
}

func TestMemoryStore_GetReturnsIsolatedCopy(t *testing.T) {
	store, err := NewMemoryStore(16)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", sampleContext()))

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	first.SymptomAnalysis.Symptoms = append(first.SymptomAnalysis.Symptoms, "rash")
	first.ConversationStage = "mutated"

	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fever", "cough"}, second.SymptomAnalysis.Symptoms)
	assert.Equal(t, "gathering_details", second.ConversationStage)
}

func TestSessionContext_HistoryEviction(t *testing.T) {
	sess := models.NewSessionContext()
	for i := 0; i < models.MaxHistoryTurns+5; i++ {
		sess.AppendTurn(models.TurnRecord{UserMessage: "turn"})
	}
	assert.Len(t, sess.ConversationHistory, models.MaxHistoryTurns)
}
