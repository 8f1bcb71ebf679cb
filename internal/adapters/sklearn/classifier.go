package sklearn

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mikey/sms-spam-detector/internal/core"
)

const (
	// KindMultinomialNB is a fitted MultinomialNB
	KindMultinomialNB = "multinomial_nb"
	// KindBernoulliNB is a fitted BernoulliNB
	KindBernoulliNB = "bernoulli_nb"
	// KindLogisticRegression is a fitted binary LogisticRegression
	KindLogisticRegression = "logistic_regression"
)

// estimator evaluates one fitted model. Scores are per class, in fitted
// class order.
type estimator interface {
	predictProba(x core.FeatureVector) []float64
	predictIndex(x core.FeatureVector) int
}

// Classifier is a fitted two-class estimator whose native class encoding has
// been mapped onto core.Label. It is immutable and safe for concurrent use.
type Classifier struct {
	kind       string
	classes    []core.Label
	rawClasses []string
	nFeatures  int
	est        estimator
}

var _ core.Classifier = (*Classifier)(nil)

// DecodeClassifier decodes and validates an exported classifier. spamLabel is
// the artifact's native value for the spam class; the other class is ham.
func DecodeClassifier(data []byte, spamLabel string) (*Classifier, error) {
	var doc classifierDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.check(ClassifierFormat); err != nil {
		return nil, err
	}

	if len(doc.Classes) != 2 {
		return nil, fmt.Errorf("%w: expected 2 classes, got %d", ErrMalformed, len(doc.Classes))
	}
	raw := make([]string, len(doc.Classes))
	for i, c := range doc.Classes {
		text, err := classText(c)
		if err != nil {
			return nil, err
		}
		raw[i] = text
	}
	if raw[0] == raw[1] {
		return nil, fmt.Errorf("%w: duplicate class %q", ErrMalformed, raw[0])
	}
	classes, err := mapLabels(raw, spamLabel)
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		kind:       doc.Kind,
		classes:    classes,
		rawClasses: raw,
	}

	switch doc.Kind {
	case KindMultinomialNB:
		c.nFeatures, err = checkNB(&doc)
		if err != nil {
			return nil, err
		}
		c.est = &multinomialNB{classLogPrior: doc.ClassLogPrior, featureLogProb: doc.FeatureLogProb}
	case KindBernoulliNB:
		c.nFeatures, err = checkNB(&doc)
		if err != nil {
			return nil, err
		}
		threshold, err := bernoulliThreshold(data, doc.Binarize)
		if err != nil {
			return nil, err
		}
		c.est = newBernoulliNB(doc.ClassLogPrior, doc.FeatureLogProb, threshold)
	case KindLogisticRegression:
		if len(doc.Coef) != 1 || len(doc.Intercept) != 1 {
			return nil, fmt.Errorf("%w: binary logistic regression needs 1 coef row and 1 intercept", ErrMalformed)
		}
		c.nFeatures, err = featureCount(doc.NFeatures, len(doc.Coef[0]))
		if err != nil {
			return nil, err
		}
		c.est = &logisticRegression{coef: doc.Coef[0], intercept: doc.Intercept[0]}
	default:
		return nil, fmt.Errorf("%w: classifier %q", ErrUnsupportedKind, doc.Kind)
	}

	return c, nil
}

// mapLabels turns native class values into canonical labels, exactly once
func mapLabels(raw []string, spamLabel string) ([]core.Label, error) {
	labels := make([]core.Label, len(raw))
	spamAt := -1
	for i, r := range raw {
		if labelMatches(r, spamLabel) {
			if spamAt >= 0 {
				return nil, fmt.Errorf("%w: spam label %q matches more than one class", ErrMalformed, spamLabel)
			}
			spamAt = i
		}
	}
	if spamAt < 0 {
		return nil, fmt.Errorf("%w: %q not in %v", ErrSpamLabelNotFound, spamLabel, raw)
	}
	for i := range labels {
		if i == spamAt {
			labels[i] = core.LabelSpam
		} else {
			labels[i] = core.LabelHam
		}
	}
	return labels, nil
}

func checkNB(doc *classifierDoc) (int, error) {
	if len(doc.ClassLogPrior) != 2 || len(doc.FeatureLogProb) != 2 {
		return 0, fmt.Errorf("%w: naive bayes needs 2 class priors and 2 feature rows", ErrMalformed)
	}
	if len(doc.FeatureLogProb[0]) != len(doc.FeatureLogProb[1]) {
		return 0, fmt.Errorf("%w: feature_log_prob rows differ in length", ErrDimensionMismatch)
	}
	return featureCount(doc.NFeatures, len(doc.FeatureLogProb[0]))
}

func featureCount(declared, actual int) (int, error) {
	if actual == 0 {
		return 0, fmt.Errorf("%w: no features", ErrMalformed)
	}
	if declared != 0 && declared != actual {
		return 0, fmt.Errorf("%w: n_features is %d but parameters have %d", ErrDimensionMismatch, declared, actual)
	}
	return actual, nil
}

// bernoulliThreshold returns the binarize threshold; an absent key means 0.0
// and an explicit null disables binarization
func bernoulliThreshold(data []byte, binarize *float64) (*float64, error) {
	if binarize != nil {
		return binarize, nil
	}
	var probe binarizeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if string(probe.Binarize) == "null" {
		return nil, nil
	}
	zero := 0.0
	return &zero, nil
}

// Classes returns canonical labels in fitted class order
func (c *Classifier) Classes() []core.Label {
	out := make([]core.Label, len(c.classes))
	copy(out, c.classes)
	return out
}

// RawClasses returns the native class values in fitted class order
func (c *Classifier) RawClasses() []string {
	out := make([]string, len(c.rawClasses))
	copy(out, c.rawClasses)
	return out
}

// NumFeatures returns the input dimension
func (c *Classifier) NumFeatures() int {
	return c.nFeatures
}

// Kind returns the estimator kind
func (c *Classifier) Kind() string {
	return c.kind
}

// Predict returns the label of the most probable class
func (c *Classifier) Predict(x core.FeatureVector) (core.Label, error) {
	if err := c.checkInput(x); err != nil {
		return 0, err
	}
	return c.classes[c.est.predictIndex(x)], nil
}

// PredictProba returns class probabilities in fitted class order
func (c *Classifier) PredictProba(x core.FeatureVector) ([]float64, error) {
	if err := c.checkInput(x); err != nil {
		return nil, err
	}
	return c.est.predictProba(x), nil
}

func (c *Classifier) checkInput(x core.FeatureVector) error {
	if x.Dim != c.nFeatures {
		return fmt.Errorf("%w: got %d features, classifier expects %d", ErrDimensionMismatch, x.Dim, c.nFeatures)
	}
	if len(x.Indices) != len(x.Values) {
		return fmt.Errorf("%w: %d indices for %d values", ErrMalformed, len(x.Indices), len(x.Values))
	}
	for _, idx := range x.Indices {
		if idx < 0 || idx >= c.nFeatures {
			return fmt.Errorf("%w: index %d outside dimension %d", ErrDimensionMismatch, idx, c.nFeatures)
		}
	}
	return nil
}

type multinomialNB struct {
	classLogPrior  []float64
	featureLogProb [][]float64
}

func (m *multinomialNB) jointLogLikelihood(x core.FeatureVector) []float64 {
	jll := make([]float64, len(m.classLogPrior))
	for k := range jll {
		jll[k] = m.classLogPrior[k]
		for i, idx := range x.Indices {
			jll[k] += x.Values[i] * m.featureLogProb[k][idx]
		}
	}
	return jll
}

func (m *multinomialNB) predictProba(x core.FeatureVector) []float64 {
	return softmax(m.jointLogLikelihood(x))
}

func (m *multinomialNB) predictIndex(x core.FeatureVector) int {
	return argmax(m.jointLogLikelihood(x))
}

type bernoulliNB struct {
	classLogPrior []float64
	// delta[k][j] = log p(x_j=1|k) - log p(x_j=0|k)
	delta     [][]float64
	negSum    []float64
	threshold *float64
}

func newBernoulliNB(classLogPrior []float64, featureLogProb [][]float64, threshold *float64) *bernoulliNB {
	b := &bernoulliNB{
		classLogPrior: classLogPrior,
		delta:         make([][]float64, len(featureLogProb)),
		negSum:        make([]float64, len(featureLogProb)),
		threshold:     threshold,
	}
	for k, row := range featureLogProb {
		b.delta[k] = make([]float64, len(row))
		for j, flp := range row {
			neg := math.Log1p(-math.Exp(flp))
			b.delta[k][j] = flp - neg
			b.negSum[k] += neg
		}
	}
	return b
}

func (b *bernoulliNB) jointLogLikelihood(x core.FeatureVector) []float64 {
	jll := make([]float64, len(b.classLogPrior))
	for k := range jll {
		jll[k] = b.classLogPrior[k] + b.negSum[k]
		for i, idx := range x.Indices {
			val := x.Values[i]
			if b.threshold != nil {
				if val > *b.threshold {
					val = 1
				} else {
					val = 0
				}
			}
			jll[k] += val * b.delta[k][idx]
		}
	}
	return jll
}

func (b *bernoulliNB) predictProba(x core.FeatureVector) []float64 {
	return softmax(b.jointLogLikelihood(x))
}

func (b *bernoulliNB) predictIndex(x core.FeatureVector) int {
	return argmax(b.jointLogLikelihood(x))
}

type logisticRegression struct {
	coef      []float64
	intercept float64
}

func (l *logisticRegression) decision(x core.FeatureVector) float64 {
	d := l.intercept
	for i, idx := range x.Indices {
		d += x.Values[i] * l.coef[idx]
	}
	return d
}

func (l *logisticRegression) predictProba(x core.FeatureVector) []float64 {
	p := sigmoid(l.decision(x))
	return []float64{1 - p, p}
}

func (l *logisticRegression) predictIndex(x core.FeatureVector) int {
	if l.decision(x) > 0 {
		return 1
	}
	return 0
}

// softmax normalizes log-likelihoods with the log-sum-exp shift
func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		maxLogit = math.Max(maxLogit, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the first index of the largest value
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
