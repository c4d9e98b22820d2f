package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage is returned when a recognizer is handed no image data
	ErrEmptyImage = errors.New("empty image")

	// ErrNoResponse is returned when a backend answers without any text part
	ErrNoResponse = errors.New("no response from backend")
)

// RecognizeError wraps a failed recognition with the backend and config that produced it
type RecognizeError struct {
	Backend string
	Config  string
	Err     error
}

func (e *RecognizeError) Error() string {
	return fmt.Sprintf("%s: recognizing with %q config: %v", e.Backend, e.Config, e.Err)
}

func (e *RecognizeError) Unwrap() error {
	return e.Err
}

func newRecognizeError(backend string, cfg Config, err error) error {
	var re *RecognizeError
	if errors.As(err, &re) {
		return err
	}
	return &RecognizeError{Backend: backend, Config: cfg.Name, Err: err}
}
