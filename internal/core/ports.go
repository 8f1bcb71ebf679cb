package core

import (
	"context"
)

// Vectorizer maps normalized text to a feature vector using a vocabulary
// fitted at training time
type Vectorizer interface {
	// Transform vectorizes a single document
	Transform(text string) (FeatureVector, error)

	// Dim returns the fitted vocabulary size
	Dim() int
}

// Classifier maps a feature vector to a label and per-class probabilities
type Classifier interface {
	// Classes returns the canonical labels in the artifact's class order
	Classes() []Label

	// Predict returns the predicted label
	Predict(features FeatureVector) (Label, error)

	// PredictProba returns one probability per class, ordered like Classes
	PredictProba(features FeatureVector) ([]float64, error)

	// NumFeatures returns the input dimension the classifier was fitted on
	NumFeatures() int

	// Kind names the fitted estimator
	Kind() string
}

// CacheRepository defines the interface for caching predictions
type CacheRepository interface {
	// Get retrieves a cached prediction
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
