package scheduler

import "errors"

var (
	// ErrUnauthorized indicates the actor neither administers nor owns the target booking.
	ErrUnauthorized = errors.New("scheduler: actor may not modify this booking")
	// ErrTargetNotFound indicates the booking addressed by the request is not in the corpus.
	ErrTargetNotFound = errors.New("scheduler: target booking not found")
	// ErrUnknownAction indicates the request carries an unsupported action.
	ErrUnknownAction = errors.New("scheduler: unknown action")

	// ErrInvalidInterval indicates start is not strictly before end.
	ErrInvalidInterval = errors.New("start must be before end")
	// ErrInvalidRecurrenceEnd indicates the recurrence end date does not follow the start date.
	ErrInvalidRecurrenceEnd = errors.New("recurrence end date must be after the start date")
	// ErrMissingField indicates a required field was left empty.
	ErrMissingField = errors.New("is required")
	// ErrClassroomImmutable indicates a non-administrator tried to move a booking to another classroom.
	ErrClassroomImmutable = errors.New("classroom can only be reassigned by an administrator")
)

// InvalidRequestError ties a validation failure to the offending request field.
type InvalidRequestError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	if e == nil {
		return ""
	}
	return "scheduler: invalid " + e.Field + ": " + e.Err.Error()
}

// Unwrap exposes the underlying sentinel.
func (e *InvalidRequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalid(field string, err error) error {
	return &InvalidRequestError{Field: field, Err: err}
}
