package sklearn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapSource map[string][]byte

func (m mapSource) Fetch(_ context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

func (m mapSource) Name() string {
	return "map"
}

func fixtureSource(t *testing.T) mapSource {
	return mapSource{
		"count.json": readFixture(t, "count_vectorizer.json"),
		"tfidf.json": readFixture(t, "tfidf_vectorizer.json"),
		"mnb.json":   readFixture(t, "multinomial_nb.json"),
		"lr.json":    readFixture(t, "logistic_regression.json"),
	}
}

func TestLoadArtifacts(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	src := fixtureSource(t)

	t.Run("Should load a consistent pair", func(t *testing.T) {
		a, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", Options{SpamLabel: "spam"}, logger)
		require.NoError(t, err)
		assert.Equal(t, a.Vectorizer.Dim(), a.Classifier.NumFeatures())
		assert.Equal(t, KindMultinomialNB, a.Classifier.Kind())
	})

	t.Run("Should accept matching checksums", func(t *testing.T) {
		opts := Options{
			SpamLabel:        "1",
			VectorizerSHA256: digest(src["tfidf.json"]),
			ClassifierSHA256: digest(src["lr.json"]),
		}
		_, err := LoadArtifacts(ctx, src, "tfidf.json", "lr.json", opts, logger)
		require.NoError(t, err)
	})

	t.Run("Should reject a checksum mismatch", func(t *testing.T) {
		opts := Options{SpamLabel: "spam", ClassifierSHA256: digest([]byte("something else"))}
		_, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", opts, logger)

		var loadErr *core.ArtifactLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "classifier", loadErr.Artifact)
		assert.Equal(t, "mnb.json", loadErr.Path)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("Should report a missing artifact", func(t *testing.T) {
		_, err := LoadArtifacts(ctx, src, "missing.json", "mnb.json", Options{SpamLabel: "spam"}, logger)

		var loadErr *core.ArtifactLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "vectorizer", loadErr.Artifact)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Should reject an unknown spam label", func(t *testing.T) {
		_, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", Options{SpamLabel: "junk"}, logger)

		var loadErr *core.ArtifactLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, ErrSpamLabelNotFound)
	})

	t.Run("Should reject mismatched dimensions", func(t *testing.T) {
		src := mapSource{
			"vec.json": []byte(`{"format": "sms-spam/vectorizer", "version": 1, "kind": "count", "vocabulary": {"free": 0, "gift": 1}}`),
			"clf.json": src["mnb.json"],
		}
		_, err := LoadArtifacts(ctx, src, "vec.json", "clf.json", Options{SpamLabel: "spam"}, logger)

		var loadErr *core.ArtifactLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("Should fingerprint the pair and the label mapping", func(t *testing.T) {
		a, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", Options{SpamLabel: "spam"}, logger)
		require.NoError(t, err)
		again, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", Options{SpamLabel: "spam"}, logger)
		require.NoError(t, err)
		relabelled, err := LoadArtifacts(ctx, src, "count.json", "mnb.json", Options{SpamLabel: "ham"}, logger)
		require.NoError(t, err)
		retrained, err := LoadArtifacts(ctx, mapSource{
			"count.json": src["count.json"],
			"mnb.json":   append([]byte(" "), src["mnb.json"]...),
		}, "count.json", "mnb.json", Options{SpamLabel: "spam"}, logger)
		require.NoError(t, err)

		assert.Len(t, a.Fingerprint, 64)
		assert.Equal(t, a.Fingerprint, again.Fingerprint)
		assert.NotEqual(t, a.Fingerprint, relabelled.Fingerprint)
		assert.NotEqual(t, a.Fingerprint, retrained.Fingerprint)
	})

	t.Run("Should reject artifacts swapped between roles", func(t *testing.T) {
		_, err := LoadArtifacts(ctx, src, "mnb.json", "count.json", Options{SpamLabel: "spam"}, logger)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}
