package models

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CreateHabitRequest is the POST /habits payload. Server-assigned fields
// (id, createdAt, updatedAt) have no home here and are dropped on decode.
type CreateHabitRequest struct {
	OwnerID     *string         `json:"ownerId"`
	UserID      *string         `json:"userId"` // legacy name for ownerId
	Name        *string         `json:"name" validate:"required,nonblank"`
	Unit        *UnitInput      `json:"unit" validate:"required"`
	TargetValue *Quantity       `json:"targetValue" validate:"required"`
	Schedule    json.RawMessage `json:"schedule"`
	Notes       *string         `json:"notes"`
	Color       *string         `json:"color"`
	IsActive    *bool           `json:"isActive"`
	IsArchived  *bool           `json:"isArchived"`
	EndDate     *CalendarDate   `json:"endDate"`
	Tags        []string        `json:"tags" validate:"omitempty,dive,nonblank"`
}

// ToHabit validates the request and builds the record to store. today is
// the creation date endDate is checked against.
func (r *CreateHabitRequest) ToHabit(today CalendarDate) (*Habit, error) {
	ownerID, err := r.ownerID()
	if err != nil {
		return nil, err
	}
	if err := validateStruct("", r); err != nil {
		return nil, err
	}

	unit, err := r.Unit.toUnit()
	if err != nil {
		return nil, withPrefix("unit", err)
	}
	if err := r.TargetValue.validate("targetValue"); err != nil {
		return nil, err
	}
	if isAbsent(r.Schedule) {
		return nil, invalidField("schedule", "is required")
	}
	schedule, err := ParseSchedule(r.Schedule)
	if err != nil {
		return nil, withPrefix("schedule", err)
	}
	if err := checkEndDate(r.EndDate, today); err != nil {
		return nil, err
	}

	habit := &Habit{
		OwnerID:     ownerID,
		Name:        *r.Name,
		Notes:       r.Notes,
		Color:       r.Color,
		Unit:        datatypes.NewJSONType(unit),
		TargetValue: *r.TargetValue,
		IsActive:    true,
		IsArchived:  false,
		EndDate:     r.EndDate,
	}
	if r.IsActive != nil {
		habit.IsActive = *r.IsActive
	}
	if r.IsArchived != nil {
		habit.IsArchived = *r.IsArchived
	}
	if r.Tags != nil {
		habit.Tags = datatypes.JSONSlice[string](r.Tags)
	}
	if err := habit.SetSchedule(schedule); err != nil {
		return nil, err
	}
	return habit, nil
}

func (r *CreateHabitRequest) ownerID() (uuid.UUID, error) {
	field, raw := "ownerId", r.OwnerID
	if raw == nil && r.UserID != nil {
		field, raw = "userId", r.UserID
	}
	if raw == nil {
		return uuid.Nil, invalidField("ownerId", "is required")
	}
	return ParseOwnerID(field, *raw)
}

// ParseOwnerID parses an owner identifier reported under field.
func ParseOwnerID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, invalidField(field, "must be a UUID")
	}
	return id, nil
}

// UpdateHabitRequest is the PATCH /habits/{id} payload. Every field is
// optional; id, ownerId and the timestamps cannot be patched and are dropped.
type UpdateHabitRequest struct {
	Name        Optional[string]          `json:"name"`
	Unit        Optional[UnitInput]       `json:"unit"`
	TargetValue Optional[Quantity]        `json:"targetValue"`
	Schedule    Optional[json.RawMessage] `json:"schedule"`
	Notes       Optional[string]          `json:"notes"`
	Color       Optional[string]          `json:"color"`
	IsActive    Optional[bool]            `json:"isActive"`
	IsArchived  Optional[bool]            `json:"isArchived"`
	EndDate     Optional[CalendarDate]    `json:"endDate"`
	Tags        Optional[[]string]        `json:"tags"`
}

// Patch validates every field that was sent and returns the typed patch.
// Nothing is returned unless the whole payload is valid.
func (r *UpdateHabitRequest) Patch() (*HabitPatch, error) {
	p := &HabitPatch{
		Notes:      r.Notes,
		Color:      r.Color,
		IsActive:   r.IsActive,
		IsArchived: r.IsArchived,
		EndDate:    r.EndDate,
		Tags:       r.Tags,
	}

	nonNullable := []struct {
		field     string
		set, null bool
	}{
		{"name", r.Name.Set, r.Name.Null},
		{"unit", r.Unit.Set, r.Unit.Null},
		{"targetValue", r.TargetValue.Set, r.TargetValue.Null},
		{"schedule", r.Schedule.Set, r.Schedule.Null},
		{"isActive", r.IsActive.Set, r.IsActive.Null},
		{"isArchived", r.IsArchived.Set, r.IsArchived.Null},
	}
	for _, f := range nonNullable {
		if f.set && f.null {
			return nil, invalidField(f.field, "cannot be null")
		}
	}

	if r.Name.Set {
		if err := validateVar("name", r.Name.Value, "nonblank"); err != nil {
			return nil, err
		}
		p.Name = r.Name
	}
	if r.Unit.Set {
		if err := validateStruct("unit", &r.Unit.Value); err != nil {
			return nil, err
		}
		unit, err := r.Unit.Value.toUnit()
		if err != nil {
			return nil, withPrefix("unit", err)
		}
		p.Unit = Some(unit)
	}
	if r.TargetValue.Set {
		if err := r.TargetValue.Value.validate("targetValue"); err != nil {
			return nil, err
		}
		p.TargetValue = r.TargetValue
	}
	if r.Schedule.Set {
		schedule, err := ParseSchedule(r.Schedule.Value)
		if err != nil {
			return nil, withPrefix("schedule", err)
		}
		p.Schedule = Some(schedule)
	}
	if r.Tags.Set && !r.Tags.Null {
		if err := validateVar("tags", r.Tags.Value, "dive,nonblank"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// HabitPatch is a validated sparse update. Only fields with Set are applied;
// Null clears nullable fields.
type HabitPatch struct {
	Name        Optional[string]
	Unit        Optional[HabitUnit]
	TargetValue Optional[Quantity]
	Schedule    Optional[Schedule]
	Notes       Optional[string]
	Color       Optional[string]
	IsActive    Optional[bool]
	IsArchived  Optional[bool]
	EndDate     Optional[CalendarDate]
	Tags        Optional[[]string]
}

// Apply writes the patch onto h. Checks that depend on the stored record run
// first so a failing patch leaves h untouched. Timestamps are the caller's job.
func (p *HabitPatch) Apply(h *Habit) error {
	if p.EndDate.Set && !p.EndDate.Null {
		if err := checkEndDate(&p.EndDate.Value, DateOf(h.CreatedAt)); err != nil {
			return err
		}
	}

	var schedule datatypes.JSON
	if p.Schedule.Set {
		data, err := p.Schedule.Value.MarshalJSON()
		if err != nil {
			return err
		}
		schedule = data
	}

	if p.Name.Set {
		h.Name = p.Name.Value
	}
	if p.Unit.Set {
		h.Unit = datatypes.NewJSONType(p.Unit.Value)
	}
	if p.TargetValue.Set {
		h.TargetValue = p.TargetValue.Value
	}
	if p.Schedule.Set {
		h.Schedule = schedule
	}
	if p.Notes.Set {
		h.Notes = p.Notes.Ptr()
	}
	if p.Color.Set {
		h.Color = p.Color.Ptr()
	}
	if p.IsActive.Set {
		h.IsActive = p.IsActive.Value
	}
	if p.IsArchived.Set {
		h.IsArchived = p.IsArchived.Value
	}
	if p.EndDate.Set {
		h.EndDate = p.EndDate.Ptr()
	}
	if p.Tags.Set {
		if p.Tags.Null {
			h.Tags = nil
		} else {
			h.Tags = append(datatypes.JSONSlice[string]{}, p.Tags.Value...)
		}
	}
	return nil
}

func checkEndDate(end *CalendarDate, created CalendarDate) error {
	if end != nil && end.Before(created) {
		return invalidField("endDate", "must not be before the creation date %s", created)
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
