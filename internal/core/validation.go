package core

import (
	"sort"
	"strings"
)

// ValidationError collects field-level messages for a rejected form or search.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready to collect messages.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for a field.
func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

// Has reports whether a field has at least one message.
func (v *ValidationError) Has(field string) bool {
	return len(v.Fields[field]) > 0
}

// Empty reports whether no messages were collected.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error, or nil when nothing was collected.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(v.Fields[name], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
