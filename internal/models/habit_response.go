package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HabitResponse is the external shape of a Habit.
type HabitResponse struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	Name        string          `json:"name"`
	Unit        HabitUnit       `json:"unit"`
	TargetValue Quantity        `json:"targetValue"`
	Schedule    json.RawMessage `json:"schedule"`
	Notes       *string         `json:"notes"`
	Color       *string         `json:"color"`
	IsActive    bool            `json:"isActive"`
	IsArchived  bool            `json:"isArchived"`
	EndDate     *CalendarDate   `json:"endDate"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HabitList wraps list results so pagination fields can be added later.
type HabitList struct {
	Items []HabitResponse `json:"items"`
}

func NewHabitResponse(h *Habit) HabitResponse {
	var tags []string
	if h.Tags != nil {
		tags = append([]string{}, h.Tags...)
	}
	return HabitResponse{
		ID:          h.ID,
		OwnerID:     h.OwnerID,
		Name:        h.Name,
		Unit:        h.Unit.Data(),
		TargetValue: h.TargetValue,
		Schedule:    json.RawMessage(h.Schedule),
		Notes:       h.Notes,
		Color:       h.Color,
		IsActive:    h.IsActive,
		IsArchived:  h.IsArchived,
		EndDate:     h.EndDate,
		Tags:        tags,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func NewHabitList(habits []Habit) HabitList {
	items := make([]HabitResponse, 0, len(habits))
	for i := range habits {
		items = append(items, NewHabitResponse(&habits[i]))
	}
	return HabitList{Items: items}
}
