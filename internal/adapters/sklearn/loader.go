package sklearn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"go.uber.org/zap"
)

// Options control artifact verification and label mapping
type Options struct {
	// SpamLabel is the classifier's native value for the spam class
	SpamLabel string
	// VectorizerSHA256 and ClassifierSHA256 are optional hex digests
	VectorizerSHA256 string
	ClassifierSHA256 string
}

// Artifacts is a loaded, mutually consistent vectorizer and classifier pair
type Artifacts struct {
	Vectorizer *Vectorizer
	Classifier *Classifier
	// Fingerprint changes whenever either blob or the spam label changes
	Fingerprint string
}

// LoadArtifacts reads, verifies and decodes both artifacts. Every failure is a
// *core.ArtifactLoadError; there is no fallback model.
func LoadArtifacts(
	ctx context.Context,
	source ports.ArtifactSource,
	vectorizerPath string,
	classifierPath string,
	opts Options,
	logger *zap.Logger,
) (*Artifacts, error) {
	vecData, err := fetch(ctx, source, "vectorizer", vectorizerPath, opts.VectorizerSHA256)
	if err != nil {
		return nil, err
	}
	vectorizer, err := DecodeVectorizer(vecData)
	if err != nil {
		return nil, &core.ArtifactLoadError{Artifact: "vectorizer", Path: vectorizerPath, Err: err}
	}

	clfData, err := fetch(ctx, source, "classifier", classifierPath, opts.ClassifierSHA256)
	if err != nil {
		return nil, err
	}
	classifier, err := DecodeClassifier(clfData, opts.SpamLabel)
	if err != nil {
		return nil, &core.ArtifactLoadError{Artifact: "classifier", Path: classifierPath, Err: err}
	}

	if vectorizer.Dim() != classifier.NumFeatures() {
		return nil, &core.ArtifactLoadError{
			Artifact: "classifier",
			Path:     classifierPath,
			Err: fmt.Errorf("%w: vectorizer produces %d features, classifier expects %d",
				ErrDimensionMismatch, vectorizer.Dim(), classifier.NumFeatures()),
		}
	}

	logger.Info("Loaded model artifacts",
		zap.String("source", source.Name()),
		zap.String("vectorizer", vectorizerPath),
		zap.String("vectorizer_kind", vectorizer.Kind()),
		zap.String("classifier", classifierPath),
		zap.String("classifier_kind", classifier.Kind()),
		zap.Strings("classes", classifier.RawClasses()),
		zap.String("spam_label", opts.SpamLabel),
		zap.Int("features", vectorizer.Dim()))

	return &Artifacts{
		Vectorizer:  vectorizer,
		Classifier:  classifier,
		Fingerprint: fingerprint(vecData, clfData, opts.SpamLabel),
	}, nil
}

// fingerprint identifies an artifact pair together with its label mapping
func fingerprint(vecData, clfData []byte, spamLabel string) string {
	h := sha256.New()
	for _, part := range []string{digest(vecData), digest(clfData), spamLabel} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fetch(ctx context.Context, source ports.ArtifactSource, artifact, path, checksum string) ([]byte, error) {
	data, err := source.Fetch(ctx, path)
	if err != nil {
		return nil, &core.ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	if err := verifyChecksum(data, checksum); err != nil {
		return nil, &core.ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return data, nil
}
