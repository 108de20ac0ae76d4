// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the core operations.
type ErrorKind string

// Error kinds. NotFound is deliberately absent: missing records are nil results.
const (
	KindValidation     ErrorKind = "validation"
	KindTransientFetch ErrorKind = "transient_fetch"
	KindExtraction     ErrorKind = "extraction"
	KindConfiguration  ErrorKind = "configuration"
)

// Sentinels for errors.Is matching against an OpError of the same kind.
var (
	ErrValidation     = errors.New("validation failed")
	ErrTransientFetch = errors.New("transient fetch failure")
	ErrExtraction     = errors.New("extraction failed")
	ErrConfiguration  = errors.New("required capability not configured")
)

// OpError is a failure of one operation on one source.
type OpError struct {
	Kind   ErrorKind
	Op     string
	Source string
	Err    error
}

// NewOpError wraps err.
func NewOpError(kind ErrorKind, op, source string, err error) *OpError {
	return &OpError{Kind: kind, Op: op, Source: source, Err: err}
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *OpError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTransientFetch:
		return ErrTransientFetch
	case KindExtraction:
		return ErrExtraction
	case KindConfiguration:
		return ErrConfiguration
	default:
		return nil
	}
}

// KindOf returns the kind of the first OpError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}
