package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermissionDenied is returned when microphone access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrBusy is returned when another operation of the same view is in flight.
	ErrBusy = errors.New("another operation is in progress")

	// ErrAlreadyCatalogued is returned when saving a result the backend already stores.
	ErrAlreadyCatalogued = errors.New("translation is already catalogued")

	// ErrAnnotationNotAllowed is returned when annotating an assistant turn.
	ErrAnnotationNotAllowed = errors.New("only user turns can carry a translation")

	// ErrNoSpeech is returned when a recording yields nothing to transcribe.
	ErrNoSpeech = errors.New("no speech recognized")

	ErrTurnNotFound  = errors.New("conversation turn not found")
	ErrNothingToSave = errors.New("no translation to save")
)

// NetworkError describes a failed backend call.
type NetworkError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " with status %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FieldError is one failed form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a form submission before any network call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Message)
	}
	return strings.Join(messages, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// CodeOf maps an error onto the user-visible taxonomy.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var networkErr *NetworkError
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ErrorCodePermissionDenied
	case errors.As(err, &validationErr), errors.Is(err, ErrNothingToSave):
		return ErrorCodeValidation
	case errors.Is(err, ErrBusy):
		return ErrorCodeBusy
	case errors.Is(err, ErrAlreadyCatalogued), errors.Is(err, ErrAnnotationNotAllowed):
		return ErrorCodeConflict
	case errors.Is(err, ErrTurnNotFound):
		return ErrorCodeNotFound
	case errors.Is(err, ErrNoSpeech):
		return ErrorCodeTranscription
	case errors.As(err, &networkErr):
		return ErrorCodeNetwork
	default:
		return ErrorCodeUnknown
	}
}
