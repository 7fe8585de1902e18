package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when an affiliate has no stored schedule, or a
// referenced exception does not exist.
var ErrNotFound = errors.New("schedule: not found")

// ValidationError collects field level problems that callers surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v.FieldErrors[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field. The first message per field wins.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *ValidationError) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

// NewValidationError is a shortcut for a single-field failure.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// ConflictWarning is advisory: an exception leaves less capacity on a date
// than the orders already booked there. It never blocks the write.
type ConflictWarning struct {
	Date        Date   `json:"date"`
	Outstanding int    `json:"outstanding_orders"`
	Capacity    int    `json:"capacity"`
	Message     string `json:"message"`
}
