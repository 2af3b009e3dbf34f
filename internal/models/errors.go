package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on with errors.Is.
var (
	ErrUnauthenticated = errors.New("no authenticated subject")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyRevoked  = errors.New("already revoked")
)

// ValidationError reports a rejected input and names the violated
// constraint. The message is user-facing.
type ValidationError struct {
	Constraint string
}

func (e *ValidationError) Error() string {
	return e.Constraint
}

// StageError wraps a failure from one named pipeline stage. Whether it aborts
// the pipeline depends on the stage: validation, hashing and the primary
// store are fatal; the distributed-storage and ledger stages are not.
type StageError struct {
	Stage string // "hash", "storage", "publish", "anchor", "render"
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Constructors for the stage error kinds named in the error taxonomy.

func NewStorageError(err error) *StageError { return &StageError{Stage: "storage", Err: err} }
func NewPublishError(err error) *StageError { return &StageError{Stage: "publish", Err: err} }
func NewAnchorError(err error) *StageError  { return &StageError{Stage: "anchor", Err: err} }
func NewRenderError(err error) *StageError  { return &StageError{Stage: "render", Err: err} }
func NewInputError(err error) *StageError   { return &StageError{Stage: "hash", Err: err} }
