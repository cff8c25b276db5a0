package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCode         = errors.New("code snippet cannot be empty")
	ErrMissingLanguage   = errors.New("language must be selected")
	ErrInvalidStrictness = errors.New("strictness must be one of lenient, moderate or strict")
	ErrEmptyQuery        = errors.New("search query cannot be empty")
	ErrEmptyFeedback     = errors.New("feedback to explain cannot be empty")
	ErrCancelled         = errors.New("review cancelled")
	ErrNotFound          = errors.New("review not found")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrQueueFull         = errors.New("review queue is full")
	ErrUnknownOperation  = errors.New("unknown review operation")
)

// BusyMessage is shown to users when the backend reports overload.
const BusyMessage = "The AI service is currently busy. Please wait a moment and try again."

// ValidationError is returned before any backend call is made.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return e.Reason.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// BackendError wraps a failure reported by the completion backend.
type BackendError struct {
	Overloaded bool
	Err        error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// TruncationExceededError is returned when a chunk keeps asking for
// continuations beyond the configured cap.
type TruncationExceededError struct {
	Chunk         int
	Continuations int
}

func (e *TruncationExceededError) Error() string {
	return fmt.Sprintf("improved code for chunk %d still incomplete after %d continuation calls", e.Chunk, e.Continuations)
}

var overloadSignatures = []string{"503", "overloaded", "unavailable"}

// ClassifyBackendError wraps err as a *BackendError, marking it overloaded when
// its message carries an overload signature. Errors that are already classified,
// validation errors and context errors are returned unchanged.
func ClassifyBackendError(err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	var ve *ValidationError
	var te *TruncationExceededError
	if errors.As(err, &be) || errors.As(err, &ve) || errors.As(err, &te) || errors.Is(err, ErrCancelled) {
		return err
	}
	msg := strings.ToLower(err.Error())
	overloaded := false
	for _, sig := range overloadSignatures {
		if strings.Contains(msg, sig) {
			overloaded = true
			break
		}
	}
	return &BackendError{Overloaded: overloaded, Err: err}
}

// IsOverloaded reports whether err is a backend overload.
func IsOverloaded(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Overloaded
}

// IsValidation reports whether err was raised by request validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage returns the text that should be shown for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsOverloaded(err) {
		return BusyMessage
	}
	return err.Error()
}
