// ABOUTME: Local validation error shared by every form in the console
// ABOUTME: A ValidationError never reaches the network

package model

import "errors"

// ErrValidation is matched by every *ValidationError via errors.Is
var ErrValidation = errors.New("validation failed")

// ValidationError reports the first invalid field of a form
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is lets callers test errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
