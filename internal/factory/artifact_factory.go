package factory

import (
	"context"
	"fmt"

	"github.com/mikey/sms-spam-detector/internal/adapters/sklearn"
	"github.com/mikey/sms-spam-detector/internal/adapters/source"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"go.uber.org/zap"
)

// ArtifactFactory loads the fitted vectorizer and classifier from the
// configured source
type ArtifactFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewArtifactFactory creates a new artifact factory
func NewArtifactFactory(cfg *config.Config, logger *zap.Logger) *ArtifactFactory {
	return &ArtifactFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateArtifactSource creates an artifact source based on the configuration
func (f *ArtifactFactory) CreateArtifactSource(ctx context.Context) (ports.ArtifactSource, error) {
	sourceType := f.cfg.GetString("artifacts.source")

	switch sourceType {
	case "file":
		return source.NewFileSource(""), nil
	case "s3":
		s3Cfg := f.cfg.GetS3()
		if s3Cfg.Bucket == "" {
			return nil, fmt.Errorf("artifacts.s3.bucket is required for the s3 source")
		}
		client, err := source.NewS3Client(ctx, s3Cfg)
		if err != nil {
			return nil, err
		}
		return source.NewS3Source(client, s3Cfg.Bucket, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported artifact source: %s", sourceType)
	}
}

// LoadArtifacts reads both artifacts once. The load is bounded by
// artifacts.load_timeout.
func (f *ArtifactFactory) LoadArtifacts() (*sklearn.Artifacts, error) {
	artifactsCfg, err := f.cfg.GetArtifacts()
	if err != nil {
		return nil, fmt.Errorf("invalid artifacts configuration: %w", err)
	}

	ctx := context.Background()
	if artifactsCfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, artifactsCfg.LoadTimeout)
		defer cancel()
	}

	src, err := f.CreateArtifactSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact source: %w", err)
	}

	return sklearn.LoadArtifacts(ctx, src,
		artifactsCfg.VectorizerPath,
		artifactsCfg.ClassifierPath,
		sklearn.Options{
			SpamLabel:        f.cfg.GetModel().SpamLabel,
			VectorizerSHA256: artifactsCfg.VectorizerSHA256,
			ClassifierSHA256: artifactsCfg.ClassifierSHA256,
		},
		f.logger,
	)
}
