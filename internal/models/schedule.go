package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

type ScheduleType string

const (
	ScheduleSpecificDays   ScheduleType = "specific-days"
	ScheduleRolling        ScheduleType = "rolling"
	ScheduleFlexibleWindow ScheduleType = "flexible-window"
)

type IntervalType string

const (
	IntervalDay   IntervalType = "day"
	IntervalWeek  IntervalType = "week"
	IntervalMonth IntervalType = "month"
)

// Schedule is the recurrence rule of a habit. The set of implementations is
// closed: SpecificDaysSchedule, RollingSchedule and FlexibleWindowSchedule.
// Switch on the concrete type to dispatch.
type Schedule interface {
	Type() ScheduleType
	json.Marshaler
	isSchedule()
}

// SpecificDaysSchedule repeats on fixed weekdays, 0 = Sunday through 6 = Saturday.
type SpecificDaysSchedule struct {
	DaysOfWeek []int
}

// RollingSchedule repeats every IntervalQuantity intervals.
type RollingSchedule struct {
	IntervalType     IntervalType
	IntervalQuantity int
	ResetOnMiss      bool
}

// FlexibleWindowSchedule must be satisfied once somewhere inside each window
// of WindowLength intervals.
type FlexibleWindowSchedule struct {
	WindowLength int
	IntervalType IntervalType
	ResetOnMiss  bool
}

func (SpecificDaysSchedule) Type() ScheduleType   { return ScheduleSpecificDays }
func (RollingSchedule) Type() ScheduleType        { return ScheduleRolling }
func (FlexibleWindowSchedule) Type() ScheduleType { return ScheduleFlexibleWindow }

func (SpecificDaysSchedule) isSchedule()   {}
func (RollingSchedule) isSchedule()        {}
func (FlexibleWindowSchedule) isSchedule() {}

func (s SpecificDaysSchedule) MarshalJSON() ([]byte, error) {
	days := s.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	return json.Marshal(struct {
		Type       ScheduleType `json:"type"`
		DaysOfWeek []int        `json:"daysOfWeek"`
	}{s.Type(), days})
}

func (s RollingSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type             ScheduleType `json:"type"`
		IntervalType     IntervalType `json:"intervalType"`
		IntervalQuantity int          `json:"intervalQuantity"`
		ResetOnMiss      bool         `json:"resetOnMiss"`
	}{s.Type(), s.IntervalType, s.IntervalQuantity, s.ResetOnMiss})
}

func (s FlexibleWindowSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         ScheduleType `json:"type"`
		WindowLength int          `json:"windowLength"`
		IntervalType IntervalType `json:"intervalType"`
		ResetOnMiss  bool         `json:"resetOnMiss"`
	}{s.Type(), s.WindowLength, s.IntervalType, s.ResetOnMiss})
}

// scheduleFields lists the keys each variant may carry besides "type".
var scheduleFields = map[ScheduleType][]string{
	ScheduleSpecificDays:   {"daysOfWeek"},
	ScheduleRolling:        {"intervalType", "intervalQuantity", "resetOnMiss"},
	ScheduleFlexibleWindow: {"windowLength", "intervalType", "resetOnMiss"},
}

// ParseSchedule decodes a schedule object, choosing the variant from its
// "type" discriminator. Field paths in returned errors are relative to the
// schedule object.
func ParseSchedule(data []byte) (Schedule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, invalidField("", "is required")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, invalidField("", "must be an object")
	}

	raw, ok := fields["type"]
	if !ok {
		return nil, invalidField("type", "is required")
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, invalidField("type", "must be a string")
	}

	kind := ScheduleType(tag)
	allowed, ok := scheduleFields[kind]
	if !ok {
		return nil, &ValidationError{
			Kind:    ErrUnknownVariant,
			Field:   "type",
			Message: "must be one of " + strings.Join(scheduleTypeNames(), ", "),
		}
	}
	if err := rejectForeignFields(fields, allowed); err != nil {
		return nil, err
	}

	switch kind {
	case ScheduleSpecificDays:
		var in specificDaysInput
		if err := decodeVariant(data, &in); err != nil {
			return nil, err
		}
		return SpecificDaysSchedule{DaysOfWeek: in.DaysOfWeek}, nil
	case ScheduleRolling:
		var in rollingInput
		if err := decodeVariant(data, &in); err != nil {
			return nil, err
		}
		return RollingSchedule{
			IntervalType:     *in.IntervalType,
			IntervalQuantity: *in.IntervalQuantity,
			ResetOnMiss:      *in.ResetOnMiss,
		}, nil
	default:
		var in flexibleWindowInput
		if err := decodeVariant(data, &in); err != nil {
			return nil, err
		}
		return FlexibleWindowSchedule{
			WindowLength: *in.WindowLength,
			IntervalType: *in.IntervalType,
			ResetOnMiss:  *in.ResetOnMiss,
		}, nil
	}
}

// Wire shapes of the variants. Pointers tell a missing or null field apart
// from a zero value.
type specificDaysInput struct {
	DaysOfWeek []int `json:"daysOfWeek" validate:"required,min=1,unique,dive,min=0,max=6"`
}

type rollingInput struct {
	IntervalType     *IntervalType `json:"intervalType" validate:"required,oneof=day week month"`
	IntervalQuantity *int          `json:"intervalQuantity" validate:"required,gt=0"`
	ResetOnMiss      *bool         `json:"resetOnMiss" validate:"required"`
}

type flexibleWindowInput struct {
	WindowLength *int          `json:"windowLength" validate:"required,gt=0"`
	IntervalType *IntervalType `json:"intervalType" validate:"required,oneof=day week month"`
	ResetOnMiss  *bool         `json:"resetOnMiss" validate:"required"`
}

func decodeVariant(data []byte, in any) error {
	if err := json.Unmarshal(data, in); err != nil {
		return DecodeError(err)
	}
	return validateStruct("", in)
}

func rejectForeignFields(fields map[string]json.RawMessage, allowed []string) error {
	var foreign []string
	for name := range fields {
		if name == "type" {
			continue
		}
		known := false
		for _, a := range allowed {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			foreign = append(foreign, name)
		}
	}
	if len(foreign) == 0 {
		return nil
	}
	sort.Strings(foreign)
	return invalidField(foreign[0], "is not allowed for this schedule type")
}

func scheduleTypeNames() []string {
	return []string{string(ScheduleSpecificDays), string(ScheduleRolling), string(ScheduleFlexibleWindow)}
}
