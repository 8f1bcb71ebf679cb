package di

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/sms-spam-detector/internal/adapters/frontend"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureDir = filepath.Join("..", "adapters", "sklearn", "testdata")

func TestBuildContainerWithConfig(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("artifacts.vectorizer_path", filepath.Join(fixtureDir, "tfidf_vectorizer.json"))
	v.Set("artifacts.classifier_path", filepath.Join(fixtureDir, "logistic_regression.json"))
	v.Set("model.spam_label", "1")
	v.Set("server.mode", "test")
	v.Set("cache.enabled", true)
	v.Set("logging.level", "error")

	container, err := BuildContainerWithConfig(config.NewFromViper(v))
	require.NoError(t, err)

	err = container.Invoke(func(fe ports.Frontend, svc *core.SpamDetectorService, repo core.CacheRepository) {
		assert.IsType(t, &frontend.WebFrontend{}, fe)
		assert.Equal(t, 14, svc.NumFeatures())
		require.NotNil(t, repo)

		res, err := fe.ProcessMessage(context.Background(), "WINNER!! You've been selected for a FREE $1000 gift card.")
		require.NoError(t, err)
		assert.True(t, res.IsSpam())

		if stopper, ok := repo.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	})
	require.NoError(t, err)
}

func TestBuildContainerFailsOnMissingArtifacts(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("artifacts.vectorizer_path", filepath.Join(t.TempDir(), "missing.json"))

	container, err := BuildContainerWithConfig(config.NewFromViper(v))
	require.NoError(t, err)

	err = container.Invoke(func(ports.Frontend) {})
	var loadErr *core.ArtifactLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestBuildCLIContainer(t *testing.T) {
	var out bytes.Buffer
	flags := &CLIFlags{
		Vectorizer: filepath.Join(fixtureDir, "count_vectorizer.json"),
		Classifier: filepath.Join(fixtureDir, "multinomial_nb.json"),
		SpamLabel:  "spam",
	}

	container, err := BuildCLIContainer(flags, &out)
	require.NoError(t, err)

	err = container.Invoke(func(cli *frontend.CliFrontend, cfg *config.Config) {
		assert.Equal(t, "text", cfg.GetString("cli.output"))

		_, err := cli.ProcessMessage(context.Background(), "Hey, are we still meeting for lunch tomorrow?")
		require.NoError(t, err)
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "NOT SPAM")
}

func TestBuildCLIContainerReadsEnvironment(t *testing.T) {
	t.Setenv("SMS_SPAM_MODEL_SPAM_LABEL", "1")
	t.Setenv("SMS_SPAM_CLI_OUTPUT", "json")

	var out bytes.Buffer
	flags := &CLIFlags{
		Vectorizer: filepath.Join(fixtureDir, "tfidf_vectorizer.json"),
		Classifier: filepath.Join(fixtureDir, "logistic_regression.json"),
	}

	container, err := BuildCLIContainer(flags, &out)
	require.NoError(t, err)

	err = container.Invoke(func(cli *frontend.CliFrontend, cfg *config.Config) {
		assert.Equal(t, "1", cfg.GetString("model.spam_label"))

		res, err := cli.ProcessMessage(context.Background(), "WINNER!! You've been selected for a FREE $1000 gift card.")
		require.NoError(t, err)
		assert.True(t, res.IsSpam())
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"outcome": "spam"`)
}

func TestBuildCLIContainerFlagsBeatEnvironment(t *testing.T) {
	t.Setenv("SMS_SPAM_MODEL_SPAM_LABEL", "1")

	flags := &CLIFlags{
		Vectorizer: filepath.Join(fixtureDir, "count_vectorizer.json"),
		Classifier: filepath.Join(fixtureDir, "multinomial_nb.json"),
		SpamLabel:  "spam",
	}

	container, err := BuildCLIContainer(flags, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, container.Invoke(func(cfg *config.Config) {
		assert.Equal(t, "spam", cfg.GetString("model.spam_label"))
	}))
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	applyFlagOverrides(cfg, &CLIFlags{Output: "json", Verbose: true, SpamLabel: "1"})

	assert.Equal(t, "json", cfg.GetString("cli.output"))
	assert.True(t, cfg.GetBool("cli.verbose"))
	assert.Equal(t, "1", cfg.GetString("model.spam_label"))
	assert.Equal(t, "./models/vectorizer.json", cfg.GetString("artifacts.vectorizer_path"))
}
