package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrInvalidField   = errors.New("invalid field")
	ErrUnknownVariant = fmt.Errorf("%w: unknown schedule variant", ErrInvalidField)
)

// ValidationError reports a payload that failed shape, type or constraint
// checks. Field is the external (camelCase) path of the offending value.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Code is the machine-readable name sent to clients.
func (e *ValidationError) Code() string {
	if errors.Is(e.Kind, ErrUnknownVariant) {
		return "unknown_variant"
	}
	return "invalid_field"
}

func invalidField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ErrInvalidField, Field: field, Message: fmt.Sprintf(format, args...)}
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	default:
		return prefix + "." + field
	}
}

// withPrefix nests a ValidationError under prefix. Other errors pass through.
func withPrefix(prefix string, err error) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Kind: ve.Kind, Field: joinPath(prefix, ve.Field), Message: ve.Message}
}

// DecodeError turns a body decoding failure into a ValidationError so the
// whole request is rejected with the offending field named.
func DecodeError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return invalidField(field, "expected %s, got %s", describeType(typeErr), typeErr.Value)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return invalidField("body", "malformed JSON at offset %d", syntaxErr.Offset)
	}

	return invalidField("body", "unreadable request body")
}

func describeType(err *json.UnmarshalTypeError) string {
	switch err.Type {
	case nil:
		return "a different type"
	case quantityType:
		return "number"
	case calendarDateType:
		return "date string (YYYY-MM-DD)"
	}
	switch err.Type.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return "object"
}
