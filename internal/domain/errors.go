package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMaterialNotFound is returned when a material id does not exist.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrQuestionNotFound is returned when a question id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound is returned when a submitted answer id is invalid.
	ErrAnswerNotFound = errors.New("answer not found")
)

// IsNotFound reports whether err is one of the missing-entity sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMaterialNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound)
}

// ValidationError reports missing or malformed submission fields. It aborts
// an operation before any write happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid submission: %s", strings.Join(fields, ", "))
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
