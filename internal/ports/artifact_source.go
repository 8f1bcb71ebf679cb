package ports

import (
	"context"
)

// ArtifactSource defines where serialized model artifacts are read from
type ArtifactSource interface {
	// Fetch returns the full contents of the artifact at path
	Fetch(ctx context.Context, path string) ([]byte, error)

	// Name identifies the source in logs and errors
	Name() string
}
