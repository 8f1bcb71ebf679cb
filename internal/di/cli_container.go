package di

import (
	"io"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sms-spam-detector/internal/adapters/frontend"
	"github.com/mikey/sms-spam-detector/internal/adapters/sklearn"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/factory"
	"github.com/mikey/sms-spam-detector/internal/logging"
	"github.com/mikey/sms-spam-detector/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Artifact flags
	Vectorizer string
	Classifier string
	SpamLabel  string

	// Output flags
	Output  string
	Verbose bool
	JSONLog bool

	// Input flags
	InputFile  string
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application. Results are written to out.
func BuildCLIContainer(flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewWithFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Debug("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			applyFlagOverrides(cfg, flags)
			return cfg, nil
		}

		// Default search paths and SMS_SPAM_* environment, then flags
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		applyFlagOverrides(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewArtifactFactory); err != nil {
		return nil, err
	}

	// Register model artifacts
	if err := container.Provide(func(f *factory.ArtifactFactory) (*sklearn.Artifacts, error) {
		return f.LoadArtifacts()
	}); err != nil {
		return nil, err
	}

	// Register spam detector service with no cache
	if err := container.Provide(func(
		artifacts *sklearn.Artifacts,
		logger *zap.Logger,
	) *core.SpamDetectorService {
		return core.NewSpamDetectorService(
			artifacts.Vectorizer,
			artifacts.Classifier,
			artifacts.Fingerprint,
			nil, // No cache for CLI
			logger,
			false,
			time.Duration(0),
		)
	}); err != nil {
		return nil, err
	}

	// Register CLI frontend
	if err := container.Provide(func(
		service *core.SpamDetectorService,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		cfg *config.Config,
	) (*frontend.CliFrontend, error) {
		return frontend.NewCliFrontend(
			service,
			textProcessor,
			logger,
			out,
			cfg.GetString("cli.output"),
			cfg.GetBool("cli.verbose"),
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlagOverrides sets the values given explicitly on the command line
func applyFlagOverrides(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()

	// Set some cli specific settings
	if flags.Verbose {
		v.Set("cli.verbose", true)
	}
	if flags.Output != "" {
		v.Set("cli.output", flags.Output)
	}

	// Artifacts given on the command line are always local files
	if flags.Vectorizer != "" {
		v.Set("artifacts.source", "file")
		v.Set("artifacts.vectorizer_path", flags.Vectorizer)
	}
	if flags.Classifier != "" {
		v.Set("artifacts.source", "file")
		v.Set("artifacts.classifier_path", flags.Classifier)
	}
	if flags.SpamLabel != "" {
		v.Set("model.spam_label", flags.SpamLabel)
	}
}
