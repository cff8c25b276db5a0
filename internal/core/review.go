// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strictness controls how thorough the requested review should be. It is opaque
// to the review protocol and forwarded verbatim to the model.
type Strictness string

const (
	StrictnessLenient  Strictness = "lenient"
	StrictnessModerate Strictness = "moderate"
	StrictnessStrict   Strictness = "strict"
)

// ParseStrictness converts user input into a Strictness, ignoring case and
// surrounding whitespace.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case StrictnessLenient:
		return StrictnessLenient, nil
	case StrictnessModerate:
		return StrictnessModerate, nil
	case StrictnessStrict:
		return StrictnessStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrictness, s)
	}
}

// Valid reports whether s is one of the three known levels.
func (s Strictness) Valid() bool {
	switch s {
	case StrictnessLenient, StrictnessModerate, StrictnessStrict:
		return true
	default:
		return false
	}
}

// ReviewRequest is the immutable input to one review operation.
type ReviewRequest struct {
	Code       string
	Language   string
	Strictness Strictness
}

// Validate rejects requests that must never reach the backend.
func (r ReviewRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return &ValidationError{Reason: ErrEmptyCode}
	}
	if strings.TrimSpace(r.Language) == "" {
		return &ValidationError{Reason: ErrMissingLanguage}
	}
	if !r.Strictness.Valid() {
		return &ValidationError{Reason: ErrInvalidStrictness}
	}
	return nil
}

// Chunk is an ordered, line-aligned slice of ReviewRequest.Code.
type Chunk struct {
	Index     int
	Text      string
	StartLine int // 1-based line number of the first line in Text
	LineCount int
}

// ReviewRecord is a completed review as stored in the history library.
// Feedback and CorrectedCode are nullable in the persisted layout.
type ReviewRecord struct {
	ID            int64      `json:"id" db:"id"`
	Timestamp     int64      `json:"timestamp" db:"timestamp"`
	Title         string     `json:"title" db:"title"`
	Code          string     `json:"code" db:"code"`
	Language      string     `json:"language" db:"language"`
	Strictness    Strictness `json:"strictness" db:"strictness"`
	Feedback      *string    `json:"feedback" db:"feedback"`
	CorrectedCode *string    `json:"correctedCode" db:"corrected_code"`
}

// DefaultTitle returns the title given to a freshly saved review,
// e.g. "Python Review Snippet".
func DefaultTitle(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "Review Snippet"
	}
	r, size := utf8.DecodeRuneInString(language)
	return string(unicode.ToUpper(r)) + language[size:] + " Review Snippet"
}

// Outcome is the terminal result of a successful review operation.
type Outcome struct {
	Feedback      string
	CorrectedCode string
	Record        *ReviewRecord // nil when nothing was persisted
}
