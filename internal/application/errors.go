package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when creating a resource whose identifier is taken.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a requested booking collides with an existing one.
// Nothing was written.
type ConflictError struct {
	Start time.Time
	End   time.Time
	// InstanceIndex locates the colliding candidate within a generated series.
	InstanceIndex int
	Existing      booking.Booking
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("booking conflicts with %q from %s to %s",
		c.Existing.Title,
		c.Existing.Start.Format("2006-01-02 15:04"),
		c.Existing.End.Format("15:04"),
	)
}

// PersistenceError reports a store failure after local validation passed. The
// in-memory projection has already been restored when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (p *PersistenceError) Error() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("application: failed to persist %s: %v", p.Op, p.Err)
}

// Unwrap exposes the underlying store error.
func (p *PersistenceError) Unwrap() error {
	if p == nil {
		return nil
	}
	return p.Err
}
