package model

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by a backend whose model is not loaded.
var ErrNotLoaded = errors.New("model: not loaded")

// ShapeMismatchError reports a feature vector of the wrong length. It points
// at a wiring bug upstream; the vector is never reshaped or truncated.
type ShapeMismatchError struct {
	Got  int
	Want int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("model: shape mismatch: got %d features, want %d", e.Got, e.Want)
}

// ModelUnavailableError means no prediction could be made because the model
// is absent or unreachable. It is distinct from any class label.
type ModelUnavailableError struct {
	Backend string
	Err     error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model [%s]: unavailable", e.Backend)
	}
	return fmt.Sprintf("model [%s]: unavailable: %v", e.Backend, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a ModelUnavailableError for backend.
func Unavailable(backend string, err error) error {
	return &ModelUnavailableError{Backend: backend, Err: err}
}
