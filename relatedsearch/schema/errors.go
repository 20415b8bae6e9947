package schema

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConfiguration    = errors.New("relatedsearch: configuration error")
	ErrNotFound         = errors.New("relatedsearch: not found")
	ErrInvalidOperation = errors.New("relatedsearch: invalid operation")
)

// ConfigurationError reports a misdeclared relation map, model or search value.
type ConfigurationError struct {
	Model  string
	Field  string
	Reason string
}

func NewConfigurationError(model, field, format string, args ...any) ConfigurationError {
	return ConfigurationError{Model: model, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("relatedsearch: %s.%s: %s", e.Model, e.Field, e.Reason)
}

func (e ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NotFoundError reports an unknown property or method on a model.
type NotFoundError struct {
	Model    string
	Property string
	Reason   string
}

func (e NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("relatedsearch: property %s.%s is not defined", e.Model, e.Property)
	}
	return fmt.Sprintf("relatedsearch: %s.%s: %s", e.Model, e.Property, e.Reason)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidOperationError reports a write the current scenario does not allow.
type InvalidOperationError struct {
	Model  string
	Field  string
	Reason string
}

func (e InvalidOperationError) Error() string {
	return fmt.Sprintf("relatedsearch: %s.%s: %s", e.Model, e.Field, e.Reason)
}

func (e InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}
