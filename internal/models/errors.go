package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error the reading pipeline can produce.
type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindConnection    ErrorKind = "connection"
	ErrorKindStoreTimeout  ErrorKind = "store_timeout"
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindUnknown       ErrorKind = "unknown"
)

var (
	// ErrNoData is returned when the store holds no point for a room/meter.
	ErrNoData = errors.New("no data points returned")
	// ErrRejected is returned when the store accepted zero points of a write.
	ErrRejected = errors.New("store accepted zero points")
)

// ConfigurationError reports an invalid topology source.
type ConfigurationError struct {
	Source string
	Cause  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("configuration error: %s", e.Cause)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Source, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError reports malformed normalization input.
type ValidationError struct {
	Field string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Cause)
}

// StoreError wraps a failed interaction with the time-series store.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, walking the wrap chain.
func KindOf(err error) ErrorKind {
	var cfgErr *ConfigurationError
	var valErr *ValidationError
	var storeErr *StoreError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ErrorKindConfiguration
	case errors.As(err, &valErr):
		return ErrorKindValidation
	case errors.As(err, &storeErr):
		return storeErr.Kind
	default:
		return ErrorKindUnknown
	}
}

// IsRejected reports whether err stands for a write the store did not accept.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
