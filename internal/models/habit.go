package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Habit is a recurring goal owned by a user. The schedule is kept as an
// opaque JSON blob; ParseSchedule gives the typed view.
type Habit struct {
	ID          uuid.UUID                     `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID                     `gorm:"column:user_id;type:uuid;index;not null"`
	Name        string                        `gorm:"not null"`
	Notes       *string                       `gorm:"type:text"`
	Color       *string
	Unit        datatypes.JSONType[HabitUnit] `gorm:"not null"`
	TargetValue Quantity                      `gorm:"not null"`
	Schedule    datatypes.JSON                `gorm:"not null"`
	IsActive    bool                          `gorm:"not null"`
	IsArchived  bool                          `gorm:"not null"`
	EndDate     *CalendarDate
	Tags        datatypes.JSONSlice[string]
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime:false"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	Logs        []HabitLog     `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// TypedSchedule decodes the stored schedule blob.
func (h *Habit) TypedSchedule() (Schedule, error) {
	return ParseSchedule(h.Schedule)
}

// SetSchedule stores the canonical encoding of s.
func (h *Habit) SetSchedule(s Schedule) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	h.Schedule = datatypes.JSON(data)
	return nil
}

// Clone returns a copy that shares no mutable memory with h.
func (h *Habit) Clone() *Habit {
	c := *h
	c.Notes = clonePtr(h.Notes)
	c.Color = clonePtr(h.Color)
	c.EndDate = clonePtr(h.EndDate)
	c.Schedule = datatypes.JSON(bytes.Clone(h.Schedule))
	if h.Tags != nil {
		c.Tags = append(datatypes.JSONSlice[string]{}, h.Tags...)
	}
	unit := h.Unit.Data()
	unit.CustomLabel = clonePtr(unit.CustomLabel)
	unit.AllowsDecimal = clonePtr(unit.AllowsDecimal)
	unit.Category = clonePtr(unit.Category)
	c.Unit = datatypes.NewJSONType(unit)
	c.Logs = nil
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
