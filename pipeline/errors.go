// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a source produced no data.
type FailureKind int

const (
	// KindRetrieval the payload could not be obtained.
	KindRetrieval FailureKind = iota
	// KindParse the payload was obtained but is not in the expected shape.
	KindParse
)

func (k FailureKind) String() string {
	switch k {
	case KindRetrieval:
		return "retrieval"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Failure is a degraded source run. The run still emits an empty artifact.
type Failure struct {
	Kind   FailureKind
	Source string
	Err    error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Source, e.Kind, e.Err)
}

func (e *Failure) Unwrap() error {
	return e.Err
}

// IsRetrievalFailure reports whether err is a retrieval failure.
func IsRetrievalFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindRetrieval
}

// IsParseFailure reports whether err is a parse failure.
func IsParseFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindParse
}

// IsTimeout reports whether err was caused by the source deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
