package core

import (
	"fmt"
	"time"
)

// Label is the canonical two-valued class of a message. Artifact specific
// encodings ("spam", 1, ...) are mapped onto it once, when the classifier is
// loaded.
type Label int

const (
	// LabelHam is a legitimate message
	LabelHam Label = iota
	// LabelSpam is an unsolicited message
	LabelSpam
)

// String returns the lowercase name of the label
func (l Label) String() string {
	switch l {
	case LabelHam:
		return "ham"
	case LabelSpam:
		return "spam"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// FeatureVector is a sparse, fixed-dimension numeric vector. Indices are
// strictly increasing and every index is below Dim.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries
func (f FeatureVector) NNZ() int {
	return len(f.Indices)
}

// PredictionResult represents the outcome of classifying one message
type PredictionResult struct {
	Label             Label
	ProbabilityOfSpam float64
	ProbabilityOfHam  float64
	// Confidence is the largest class probability as a percentage
	Confidence     float64
	NormalizedText string
	ModelUsed      string
}

// IsSpam reports whether the message was classified as spam
func (r *PredictionResult) IsSpam() bool {
	return r.Label == LabelSpam
}

// ConfidenceDisplay renders the confidence with one decimal place
func (r *PredictionResult) ConfidenceDisplay() string {
	return FormatPercent(r.Confidence)
}

// FormatPercent renders a percentage with one decimal place, rounded
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f", p)
}

// CacheEntry is a cached prediction keyed by the digest of the normalized text
type CacheEntry struct {
	Key               string
	Label             Label
	ProbabilityOfSpam float64
	ProbabilityOfHam  float64
	LastSeen          time.Time
	ExpiresAt         time.Time
}
