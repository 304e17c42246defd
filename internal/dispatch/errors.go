package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMode is returned before any call when a Mode fails validation.
	ErrInvalidMode = errors.New("invalid dispatch mode")
	// ErrService matches every *ServiceError through errors.Is.
	ErrService = errors.New("chat service call failed")
)

// ServiceError reports the query whose chat call failed and aborted the dispatch.
type ServiceError struct {
	// Index is the position of the failing query in the input.
	Index int
	Query string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("query %d: %v", e.Index, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrService) hold for any ServiceError.
func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}
