package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// SpamDetectorService is the inference orchestrator: normalize, vectorize,
// predict, extract confidence and package the result. The vectorizer and
// classifier are loaded once and only read afterwards, so one service is safe
// to share between concurrent requests.
type SpamDetectorService struct {
	vectorizer   Vectorizer
	classifier   Classifier
	modelID      string
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewSpamDetectorService creates a new spam detector service. modelID
// identifies the loaded artifact pair and label mapping; it scopes cache keys
// so a persistent cache never answers for a different model. cache may be nil
// when cacheEnabled is false.
func NewSpamDetectorService(
	vectorizer Vectorizer,
	classifier Classifier,
	modelID string,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *SpamDetectorService {
	return &SpamDetectorService{
		vectorizer:   vectorizer,
		classifier:   classifier,
		modelID:      modelID,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
	}
}

// Classify runs one message through the pipeline. Blank input yields
// ErrEmptyInput without touching the model. Input that is not blank but
// normalizes to nothing (punctuation only) is still classified.
func (s *SpamDetectorService) Classify(ctx context.Context, raw string) (*PredictionResult, error) {
	if IsBlank(raw) {
		return nil, ErrEmptyInput
	}

	normalized := Normalize(raw)
	key := CacheKey(s.modelID, normalized)

	if s.cacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit for message", zap.String("key", key))
			return s.fromCache(entry, normalized), nil
		}
	}

	features, err := s.vectorizer.Transform(normalized)
	if err != nil {
		return nil, &VectorizationError{Err: err}
	}

	label, err := s.classifier.Predict(features)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	proba, err := s.classifier.PredictProba(features)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	result, err := s.packageResult(label, proba, normalized)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	s.logger.Debug("Classified message",
		zap.String("label", result.Label.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Int("features", features.NNZ()))

	if s.cacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Key:               key,
			Label:             result.Label,
			ProbabilityOfSpam: result.ProbabilityOfSpam,
			ProbabilityOfHam:  result.ProbabilityOfHam,
			LastSeen:          now,
			ExpiresAt:         now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result, nil
}

// ModelKind returns the kind of the loaded classifier
func (s *SpamDetectorService) ModelKind() string {
	return s.classifier.Kind()
}

// NumFeatures returns the dimension of the loaded vectorizer
func (s *SpamDetectorService) NumFeatures() int {
	return s.vectorizer.Dim()
}

// packageResult reads per-class probabilities by the classifier's own class
// order rather than assuming index 0 is ham.
func (s *SpamDetectorService) packageResult(label Label, proba []float64, normalized string) (*PredictionResult, error) {
	classes := s.classifier.Classes()
	if len(proba) != len(classes) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d classes", len(proba), len(classes))
	}

	result := &PredictionResult{
		Label:          label,
		NormalizedText: normalized,
		ModelUsed:      s.classifier.Kind(),
	}

	var seenSpam, seenHam bool
	maxProb := 0.0
	for i, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("probability %v for class %s is out of range", p, classes[i])
		}
		maxProb = math.Max(maxProb, p)
		switch classes[i] {
		case LabelSpam:
			result.ProbabilityOfSpam = p
			seenSpam = true
		case LabelHam:
			result.ProbabilityOfHam = p
			seenHam = true
		}
	}
	if !seenSpam || !seenHam {
		return nil, fmt.Errorf("classifier classes %v do not cover spam and ham", classes)
	}

	result.Confidence = maxProb * 100
	return result, nil
}

func (s *SpamDetectorService) fromCache(entry *CacheEntry, normalized string) *PredictionResult {
	return &PredictionResult{
		Label:             entry.Label,
		ProbabilityOfSpam: entry.ProbabilityOfSpam,
		ProbabilityOfHam:  entry.ProbabilityOfHam,
		Confidence:        math.Max(entry.ProbabilityOfSpam, entry.ProbabilityOfHam) * 100,
		NormalizedText:    normalized,
		ModelUsed:         s.classifier.Kind(),
	}
}

// CacheKey derives the prediction cache key from the model identity and the
// normalized text
func CacheKey(modelID, normalized string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
