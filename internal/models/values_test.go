package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_JSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`8.25`), &q))
	assert.Equal(t, "8.25", q.String())

	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, `8.25`, string(out))
}

func TestQuantity_RejectsNonNumbers(t *testing.T) {
	for _, in := range []string{`"8"`, `true`, `null`, `{}`, `[1]`} {
		t.Run(in, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(in), &q)

			var typeErr *json.UnmarshalTypeError
			assert.ErrorAs(t, err, &typeErr)
		})
	}
}

func TestQuantity_Validate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"8", true},
		{"1.2345", true},
		{"99999999999999.9999", true},
		{"1.23456", false},
		{"-1", false},
		{"100000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := MustQuantity(tt.in).validate("targetValue")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestQuantity_ValidateHugeExponents(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"1e2000000000", false},
		{"1e-2000000000", false},
		{"-1e2000000000", false},
		{"123456789e-2000000000", false},
		{"0e2000000000", true},
		{"0e-2000000000", true},
		{"1.00000000", true},
		{"1e13", true},
		{"1e14", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &q))

			done := make(chan error, 1)
			go func() { done <- q.validate("targetValue") }()

			select {
			case err := <-done:
				if tt.ok {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, ErrInvalidField)
			case <-time.After(time.Second):
				t.Fatal("validate did not return promptly")
			}
		})
	}
}

func TestCalendarDate_JSON(t *testing.T) {
	var d CalendarDate
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01"`), &d))
	assert.Equal(t, NewCalendarDate(2026, time.March, 1), d)
	assert.Equal(t, "2026-03-01", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01"`, string(out))
}

func TestCalendarDate_RejectsBadInput(t *testing.T) {
	for _, in := range []string{`"2026-13-01"`, `"01/03/2026"`, `20260301`, `"2026-03-01T10:00:00Z"`} {
		t.Run(in, func(t *testing.T) {
			var d CalendarDate
			var typeErr *json.UnmarshalTypeError
			assert.ErrorAs(t, json.Unmarshal([]byte(in), &d), &typeErr)
		})
	}
}

func TestDateOf_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, time.May, 2, 5, 0, 0, 0, loc)

	assert.Equal(t, "2026-05-01", DateOf(local).String())
	assert.True(t, DateOf(local).Before(NewCalendarDate(2026, time.May, 2)))
}

func TestDecodeError(t *testing.T) {
	var req CreateHabitRequest
	err := DecodeError(json.Unmarshal([]byte(`{"name":5}`), &req))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "invalid_field", ve.Code())

	err = DecodeError(json.Unmarshal([]byte(`{"name":`), &req))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "body", ve.Field)
}

func TestDecodeError_NamesExpectedType(t *testing.T) {
	tests := []struct {
		body  string
		field string
		want  string
	}{
		{`{"targetValue":"8"}`, "targetValue", "expected number"},
		{`{"endDate":20260301}`, "endDate", "expected date string (YYYY-MM-DD)"},
		{`{"name":true}`, "name", "expected string"},
		{`{"tags":"run"}`, "tags", "expected array"},
		{`{"isActive":1}`, "isActive", "expected boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var req CreateHabitRequest
			err := DecodeError(json.Unmarshal([]byte(tt.body), &req))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, ve.Message, tt.want)
		})
	}
}
