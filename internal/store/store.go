package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lattivo/habits-api/internal/models"
)

var ErrNotFound = errors.New("habit not found")

// HabitStore is the persistence gateway for habits. Implementations store the
// schedule opaquely and assign id, createdAt and updatedAt themselves.
type HabitStore interface {
	// Create assigns id and timestamps to h and stores it.
	Create(ctx context.Context, h *models.Habit) error
	Get(ctx context.Context, id uuid.UUID) (*models.Habit, error)
	// ListByOwner returns the owner's habits in creation order.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Habit, error)
	// Update applies patch to the stored habit and refreshes updatedAt, all
	// under one check-then-write critical section.
	Update(ctx context.Context, id uuid.UUID, patch *models.HabitPatch) (*models.Habit, error)
	// Delete removes the habit and its logs and returns what was removed.
	// A second delete is ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) (*models.Habit, error)
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp truncates to the microsecond precision PostgreSQL keeps, so a
// returned record compares equal to the one read back later.
func (o options) stamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}

// nextUpdate returns a timestamp strictly after prev.
func (o options) nextUpdate(prev time.Time) time.Time {
	now := o.stamp()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
