// Package errs holds the error kinds the catalog API turns into 4xx responses.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrors is the key for errors that concern several fields at once.
const NonFieldErrors = "non_field_errors"

var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with the missing entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// ValidationError collects field level messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Field returns a validation error with a single message.
func Field(field, msg string) *ValidationError {
	return NewValidation().Add(field, msg)
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when no message was collected.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type BadRequestError struct {
	Msg string
}

func BadRequest(msg string) *BadRequestError {
	return &BadRequestError{Msg: msg}
}

func (e *BadRequestError) Error() string {
	return e.Msg
}
