package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrToolchain ErrorType = iota
	ErrBuild
	ErrPackage
	ErrInvalidConfig
	ErrFileOp
	ErrSigning
	ErrCache
	ErrUpload
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrToolchain:
		return "Toolchain"
	case ErrBuild:
		return "Build"
	case ErrPackage:
		return "Package"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrFileOp:
		return "FileOp"
	case ErrSigning:
		return "Signing"
	case ErrCache:
		return "Cache"
	case ErrUpload:
		return "Upload"
	default:
		return "Unknown"
	}
}

// PipelineError represents an error raised while driving a recipe
type PipelineError struct {
	Type ErrorType
	Step string
	Err  error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Step, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given type and step
func NewError(t ErrorType, step string, err error) *PipelineError {
	return &PipelineError{Type: t, Step: step, Err: err}
}

// IsType reports whether err carries a PipelineError of the given type
func IsType(err error, t ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}
