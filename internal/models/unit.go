package models

import "strings"

// HabitUnit describes what targetValue counts, e.g. glasses or minutes.
type HabitUnit struct {
	UnitKey       string  `json:"unitKey"`
	IsCustom      bool    `json:"isCustom"`
	CustomLabel   *string `json:"customLabel"`
	AllowsDecimal *bool   `json:"allowsDecimal"`
	Category      *string `json:"category"`
}

// UnitInput is the wire form of HabitUnit; pointers record presence.
type UnitInput struct {
	UnitKey       *string `json:"unitKey" validate:"required,nonblank"`
	IsCustom      *bool   `json:"isCustom" validate:"required"`
	CustomLabel   *string `json:"customLabel"`
	AllowsDecimal *bool   `json:"allowsDecimal"`
	Category      *string `json:"category"`
}

// toUnit checks the cross-field rule and converts. Tag validation has
// already run as part of the enclosing struct.
func (in *UnitInput) toUnit() (HabitUnit, error) {
	if *in.IsCustom && (in.CustomLabel == nil || strings.TrimSpace(*in.CustomLabel) == "") {
		return HabitUnit{}, invalidField("customLabel", "is required when isCustom is true")
	}
	return HabitUnit{
		UnitKey:       *in.UnitKey,
		IsCustom:      *in.IsCustom,
		CustomLabel:   in.CustomLabel,
		AllowsDecimal: in.AllowsDecimal,
		Category:      in.Category,
	}, nil
}
