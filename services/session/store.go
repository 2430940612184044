package session

import (
	"context"

	"github.com/vinodyk/patient-appointments/models"
)

// Store persists per-session conversation context between turns.
// Get returns a fresh context when the session has no saved state,
// never a nil pointer.
type Store interface {
	Get(ctx context.Context, sessionID string) (*models.SessionContext, error)
	Put(ctx context.Context, sessionID string, sess *models.SessionContext) error
	Delete(ctx context.Context, sessionID string) error
}
