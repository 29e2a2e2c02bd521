package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LogStatusInProgress = "in-progress"
	LogStatusCompleted  = "completed"
	LogStatusPartial    = "partial"
)

// HabitLog records one dated occurrence of a habit. Logs go away with their
// habit.
type HabitLog struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	HabitID   uuid.UUID      `json:"habitId" gorm:"type:uuid;index;not null"`
	OwnerID   uuid.UUID      `json:"ownerId" gorm:"column:user_id;type:uuid;index;not null"`
	Date      CalendarDate   `json:"date" gorm:"not null"`
	Status    string         `json:"status" gorm:"not null"` // in-progress, completed, partial
	Value     *Quantity      `json:"value"`
	Note      *string        `json:"note" gorm:"type:text"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (l *HabitLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
