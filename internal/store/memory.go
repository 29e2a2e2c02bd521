package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lattivo/habits-api/internal/models"
)

// MemoryStore is the in-process prototype of the gateway. Records are copied
// in and out so callers never share memory with the store.
type MemoryStore struct {
	mu     sync.Mutex
	habits map[uuid.UUID]*models.Habit
	order  []uuid.UUID
	opts   options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		habits: make(map[uuid.UUID]*models.Habit),
		opts:   buildOptions(opts),
	}
}

func (s *MemoryStore) Create(_ context.Context, h *models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = uuid.New()
	h.CreatedAt = s.opts.stamp()
	h.UpdatedAt = h.CreatedAt
	s.habits[h.ID] = h.Clone()
	s.order = append(s.order, h.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return h.Clone(), nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits := []models.Habit{}
	for _, id := range s.order {
		if h := s.habits[id]; h.OwnerID == ownerID {
			habits = append(habits, *h.Clone())
		}
	}
	return habits, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, patch *models.HabitPatch) (*models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := stored.Clone()
	if err := patch.Apply(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.opts.nextUpdate(stored.UpdatedAt)
	s.habits[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) (*models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.habits, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return h, nil
}
