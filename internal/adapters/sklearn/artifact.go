package sklearn

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// VectorizerFormat identifies an exported vectorizer
	VectorizerFormat = "sms-spam/vectorizer"
	// ClassifierFormat identifies an exported classifier
	ClassifierFormat = "sms-spam/classifier"
	// SupportedVersion is the only artifact version this package reads
	SupportedVersion = 1
)

var (
	// ErrUnsupportedVersion is returned for artifacts of an unknown version
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
	// ErrUnsupportedKind is returned for estimators this package cannot evaluate
	ErrUnsupportedKind = errors.New("unsupported artifact kind")
	// ErrFormatMismatch is returned when an artifact declares the wrong format
	ErrFormatMismatch = errors.New("artifact format mismatch")
	// ErrChecksumMismatch is returned when an artifact digest differs from the configured one
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")
	// ErrSpamLabelNotFound is returned when the configured spam label is not a fitted class
	ErrSpamLabelNotFound = errors.New("spam label not found in classifier classes")
	// ErrDimensionMismatch is returned when shapes of the artifacts disagree
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	// ErrMalformed is returned for structurally invalid artifacts
	ErrMalformed = errors.New("malformed artifact")
)

// header is shared by both artifact documents
type header struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Kind    string `json:"kind"`
}

func (h header) check(format string) error {
	if h.Format != format {
		return fmt.Errorf("%w: expected %q, got %q", ErrFormatMismatch, format, h.Format)
	}
	if h.Version != SupportedVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// vectorizerDoc is the on-disk form of a fitted CountVectorizer or TfidfVectorizer
type vectorizerDoc struct {
	header
	Vocabulary   map[string]int `json:"vocabulary"`
	TokenPattern *string        `json:"token_pattern"`
	NgramRange   []int          `json:"ngram_range"`
	Lowercase    *bool          `json:"lowercase"`
	Binary       bool           `json:"binary"`
	StopWords    []string       `json:"stop_words"`
	IDF          []float64      `json:"idf"`
	Norm         *string        `json:"norm"`
	SublinearTF  bool           `json:"sublinear_tf"`
}

// classifierDoc is the on-disk form of a fitted two-class estimator
type classifierDoc struct {
	header
	Classes        []json.RawMessage `json:"classes"`
	NFeatures      int               `json:"n_features"`
	ClassLogPrior  []float64         `json:"class_log_prior"`
	FeatureLogProb [][]float64       `json:"feature_log_prob"`
	Binarize       *float64          `json:"binarize"`
	Coef           [][]float64       `json:"coef"`
	Intercept      []float64         `json:"intercept"`
}

// binarizeProbe distinguishes an absent binarize key from an explicit null
type binarizeProbe struct {
	Binarize json.RawMessage `json:"binarize"`
}

func decodeStrict(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// verifyChecksum compares the SHA-256 of data with an expected hex digest. An
// empty expectation disables the check.
func verifyChecksum(data []byte, expected string) error {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return nil
	}
	actual := digest(data)
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

// digest returns the hex SHA-256 of data
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// classText renders a fitted class value (string, number or bool) as text
func classText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return "", fmt.Errorf("%w: null class value", ErrMalformed)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("%w: unsupported class value %s", ErrMalformed, string(raw))
}

// labelMatches reports whether a class's text equals the configured spam
// label. Numeric values compare numerically so "1" matches 1 and 1.0.
func labelMatches(class, spamLabel string) bool {
	if class == spamLabel {
		return true
	}
	a, errA := strconv.ParseFloat(class, 64)
	b, errB := strconv.ParseFloat(spamLabel, 64)
	return errA == nil && errB == nil && a == b
}
