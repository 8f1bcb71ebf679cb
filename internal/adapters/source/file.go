package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/sms-spam-detector/internal/ports"
)

// FileSource reads artifacts from the local filesystem. Relative paths are
// resolved against baseDir when it is set.
type FileSource struct {
	baseDir string
}

var _ ports.ArtifactSource = (*FileSource)(nil)

// NewFileSource creates a new file source
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{baseDir: baseDir}
}

// Fetch reads the whole file
func (s *FileSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}
	return data, nil
}

// Name returns "file"
func (s *FileSource) Name() string {
	return "file"
}
