package factory

import (
	"fmt"

	"github.com/mikey/sms-spam-detector/internal/adapters/frontend"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/metrics"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"github.com/mikey/sms-spam-detector/internal/utils"
	"go.uber.org/zap"
)

// FrontendFactory creates presentation shells based on configuration
type FrontendFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.SpamDetectorService
	metrics       *metrics.Metrics
	textProcessor *utils.TextProcessor
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.SpamDetectorService,
	m *metrics.Metrics,
	textProcessor *utils.TextProcessor,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		metrics:       m,
		textProcessor: textProcessor,
	}
}

// CreateFrontend creates the long-running frontend the daemon serves
// requests with
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	switch serverCfg.Frontend {
	case "web":
		return frontend.NewWebFrontend(
			f.service,
			f.metrics,
			f.textProcessor,
			serverCfg,
			f.cfg.GetModel().SpamLabel,
			f.logger,
		)
	case "cli":
		// The CLI frontend classifies a single message and never serves requests
		return nil, fmt.Errorf("frontend type cli is only available through sms-spam-classify")
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", serverCfg.Frontend)
	}
}
