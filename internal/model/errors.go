package model

import (
	"errors"
	"fmt"
	"strconv"
)

// InputError reports a request value the caller must change. Field and Value
// identify what was rejected.
type InputError struct {
	Field   string
	Value   string
	Message string
}

func (e *InputError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// NewInputError creates an InputError. An empty message yields the default
// "invalid <field>" text.
func NewInputError(field, value, message string) *InputError {
	return &InputError{Field: field, Value: value, Message: message}
}

// DataError reports incomplete or malformed reference data. The request was
// valid; the service configuration is not.
type DataError struct {
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a DataError with a formatted message.
func NewDataError(format string, args ...any) *DataError {
	return &DataError{Message: fmt.Sprintf(format, args...)}
}

// WrapDataError creates a DataError caused by err.
func WrapDataError(message string, err error) *DataError {
	return &DataError{Message: message, Err: err}
}

// IsInputError reports whether err (or its chain) is an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsDataError reports whether err (or its chain) is a DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
