package ports

import (
	"context"

	"github.com/mikey/sms-spam-detector/internal/core"
)

// Frontend defines the interface for a presentation shell that accepts
// messages from users and renders predictions
type Frontend interface {
	// ProcessMessage classifies one message and renders the outcome
	ProcessMessage(ctx context.Context, message string) (*core.PredictionResult, error)

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error
}
