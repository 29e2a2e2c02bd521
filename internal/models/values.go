package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	quantityScale     = 4
	quantityMaxDigits = 14
	dateLayout        = "2006-01-02"
)

var (
	quantityType     = reflect.TypeOf(Quantity{})
	calendarDateType = reflect.TypeOf(CalendarDate{})
	maxQuantity      = decimal.New(1, quantityMaxDigits)
)

// Quantity is an exact decimal: numeric(18,4) on Postgres, TEXT on SQLite. On
// the wire it is a bare JSON number; quoted numbers are rejected.
type Quantity struct {
	decimal.Decimal
}

func NewQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Decimal: d}, nil
}

func MustQuantity(s string) Quantity {
	q, err := NewQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.Decimal.String()), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || data[0] == '{' || data[0] == '[' || data[0] == 't' || data[0] == 'f' || data[0] == 'n' {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: quantityType}
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return &json.UnmarshalTypeError{Value: "number " + string(data), Type: quantityType}
	}
	if d.IsZero() {
		// 0e999999999 would otherwise be rescaled on every use.
		d = decimal.Zero
	}
	q.Decimal = d
	return nil
}

// GormDBDataType keeps the value exact: SQLite would turn numeric into REAL.
func (Quantity) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric(18,4)"
	}
	return "TEXT"
}

// validate checks sign, scale and magnitude. The exponent comes from the
// client, so magnitude and scale are bounded from the digit count first and
// the value is only rescaled once it is known to be small.
func (q Quantity) validate(field string) error {
	if q.Decimal.IsNegative() {
		return invalidField(field, "must not be negative")
	}
	if q.Decimal.IsZero() {
		return nil
	}

	digits, exp := int64(q.Decimal.NumDigits()), int64(q.Decimal.Exponent())
	switch {
	case digits+exp > quantityMaxDigits:
		return invalidField(field, "must be less than 1e%d", quantityMaxDigits)
	case -exp-quantityScale > digits:
		return invalidField(field, "must have at most %d decimal places", quantityScale)
	case !q.Decimal.Equal(q.Decimal.Round(quantityScale)):
		return invalidField(field, "must have at most %d decimal places", quantityScale)
	case q.Decimal.Abs().GreaterThanOrEqual(maxQuantity):
		return invalidField(field, "must be less than 1e%d", quantityMaxDigits)
	}
	return nil
}

// CalendarDate is a date without time of day, "YYYY-MM-DD" on the wire and
// a DATE column in storage.
type CalendarDate struct {
	datatypes.Date
}

func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Date: datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))}
}

func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, err
	}
	return CalendarDate{Date: datatypes.Date(t)}, nil
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.UTC().Date()
	return NewCalendarDate(y, m, d)
}

func (d CalendarDate) Time() time.Time {
	y, m, day := time.Time(d.Date).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Time().Before(other.Time())
}

func (d CalendarDate) String() string {
	return d.Time().Format(dateLayout)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: calendarDateType}
	}
	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: calendarDateType}
	}
	*d = parsed
	return nil
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "nothing"
	}
	switch data[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
