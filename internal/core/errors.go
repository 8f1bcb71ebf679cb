package core

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the submitted message is blank. The model is
// not consulted.
var ErrEmptyInput = errors.New("empty input")

// ArtifactLoadError reports a missing, unreadable or invalid artifact. It is
// fatal: without both artifacts no request can be served.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load %s artifact from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// VectorizationError reports a failure to vectorize normalized text
type VectorizationError struct {
	Err error
}

func (e *VectorizationError) Error() string {
	return fmt.Sprintf("vectorization failed: %v", e.Err)
}

func (e *VectorizationError) Unwrap() error {
	return e.Err
}

// InferenceError reports a failure of the classifier
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
