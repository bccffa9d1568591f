package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// Store holds pipeline sessions.
// Get returns a private copy; mutations go through Update, which applies
// fn to a copy and commits it only when fn returns nil.
type Store interface {
	Create(ctx context.Context, sess *contracts.Session) error
	Get(ctx context.Context, id string) (*contracts.Session, error)
	Update(ctx context.Context, id string, fn func(sess *contracts.Session) error) (*contracts.Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// NewID returns a fresh random session id
func NewID() string {
	return uuid.NewString()
}

func notFound() error {
	return fmt.Errorf("%w: Session not found. Please upload again.", contracts.ErrNotFound)
}
