package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lattivo/habits-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps habits in a relational database through gorm. Every
// read-then-write runs inside a transaction with the row locked (SQLite has
// no row locks; its single writer serializes instead).
type GormStore struct {
	db   *gorm.DB
	opts options

	mu          sync.Mutex
	lastCreated time.Time // creation stamps never repeat, so created_at keeps insertion order
}

func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	return &GormStore{db: db, opts: buildOptions(opts)}
}

func (s *GormStore) Create(ctx context.Context, h *models.Habit) error {
	h.ID = uuid.New()
	h.CreatedAt = s.createdStamp()
	h.UpdatedAt = h.CreatedAt
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	var habit models.Habit
	if err := s.db.WithContext(ctx).First(&habit, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &habit, nil
}

func (s *GormStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Habit, error) {
	habits := []models.Habit{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&habits).Error
	if err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *GormStore) Update(ctx context.Context, id uuid.UUID, patch *models.HabitPatch) (*models.Habit, error) {
	var habit models.Habit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockHabit(tx, id, &habit); err != nil {
			return err
		}
		if err := patch.Apply(&habit); err != nil {
			return err
		}
		habit.UpdatedAt = s.opts.nextUpdate(habit.UpdatedAt)
		return tx.Omit(clause.Associations).Save(&habit).Error
	})
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	var habit models.Habit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockHabit(tx, id, &habit); err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", id).Delete(&models.HabitLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&habit).Error
	})
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *GormStore) createdStamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCreated = s.opts.nextUpdate(s.lastCreated)
	return s.lastCreated
}

func lockHabit(tx *gorm.DB, id uuid.UUID, habit *models.Habit) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(habit, "id = ?", id).Error
	return notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
