package questionnaire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Engine errors. None of them carry user data; callers map them to HTTP codes.
var (
	ErrUnknownKind      = errors.New("unknown question kind")
	ErrDuplicateID      = errors.New("duplicate question id")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrUnknownOption    = errors.New("unknown option")
	ErrNotChoice        = errors.New("question is not a choice question")
	ErrInvalidValue     = errors.New("invalid answer value")
	ErrSelectionCap     = errors.New("maximum number of selections reached")
	ErrNotReady         = errors.New("questionnaire is not ready for submission")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("questionnaire already submitted")
	ErrSubmitFailed     = errors.New("submission failed")
)

// ErrorKind classifies a per-question validation failure.
type ErrorKind string

const (
	ErrorRequired       ErrorKind = "required"
	ErrorNumeric        ErrorKind = "numeric"
	ErrorBelowMin       ErrorKind = "below_min"
	ErrorAboveMax       ErrorKind = "above_max"
	ErrorTooManyChoices ErrorKind = "too_many_choices"
	ErrorTooLong        ErrorKind = "too_long"
)

// FieldError is the single validation failure reported for one question.
type FieldError struct {
	QuestionID string    `json:"question_id"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
}

// ValidationError is returned by Submit when at least one question fails
// validation. Errors are ordered like the questions.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	ids := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		ids[i] = fe.QuestionID + ":" + string(fe.Kind)
	}
	return fmt.Sprintf("questionnaire validation failed (%s)", strings.Join(ids, ", "))
}

// Fields returns the errors keyed by question id.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.QuestionID] = fe.Message
	}
	return fields
}

func requiredError(id string) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorRequired, Message: "This question is required."}
}

func numericError(id string) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorNumeric, Message: "Please enter a valid number."}
}

func belowMinError(id string, min float64) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorBelowMin, Message: "Value must be at least " + formatNumber(min) + "."}
}

func aboveMaxError(id string, max float64) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorAboveMax, Message: "Value must be at most " + formatNumber(max) + "."}
}

func tooManyChoicesError(id string, max int) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorTooManyChoices, Message: fmt.Sprintf("Select at most %d options.", max)}
}

func tooLongError(id string, max int) *FieldError {
	return &FieldError{QuestionID: id, Kind: ErrorTooLong, Message: fmt.Sprintf("Use at most %d characters.", max)}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
