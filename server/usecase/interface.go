package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/ponyo877/swapdesk/server/domain"
)

// ErrSessionNotFound is returned when no session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// Repository is the session store: get/set by string key with
// last-write-wins semantics. No compare-and-swap is assumed; callers
// serialize their own read-modify-write cycles.
type Repository interface {
	GetSession(ctx context.Context, id string) (domain.Session, error)
	PutSession(ctx context.Context, id string, session domain.Session) error
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
