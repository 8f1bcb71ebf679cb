package sklearn

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/mikey/sms-spam-detector/internal/core"
)

const (
	// KindCount is a fitted CountVectorizer
	KindCount = "count"
	// KindTfidf is a fitted TfidfVectorizer
	KindTfidf = "tfidf"

	defaultTokenPattern = `(?u)\b\w\w+\b`
)

// Vectorizer is a fitted bag-of-words vectorizer. It is immutable after
// construction and safe for concurrent use.
type Vectorizer struct {
	kind       string
	vocabulary map[string]int
	dim        int
	tokenRe    *regexp.Regexp
	minN, maxN int
	lowercase  bool
	binary     bool
	stopWords  map[string]struct{}

	// tfidf only
	idf         []float64
	norm        string
	sublinearTF bool
}

var _ core.Vectorizer = (*Vectorizer)(nil)

// DecodeVectorizer decodes and validates an exported vectorizer
func DecodeVectorizer(data []byte) (*Vectorizer, error) {
	var doc vectorizerDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.check(VectorizerFormat); err != nil {
		return nil, err
	}
	if doc.Kind != KindCount && doc.Kind != KindTfidf {
		return nil, fmt.Errorf("%w: vectorizer %q", ErrUnsupportedKind, doc.Kind)
	}

	dim := len(doc.Vocabulary)
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrMalformed)
	}
	seen := make([]bool, dim)
	for term, idx := range doc.Vocabulary {
		if idx < 0 || idx >= dim {
			return nil, fmt.Errorf("%w: index %d of term %q outside [0,%d)", ErrMalformed, idx, term, dim)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: index %d assigned twice", ErrMalformed, idx)
		}
		seen[idx] = true
	}

	pattern := defaultTokenPattern
	if doc.TokenPattern != nil {
		pattern = *doc.TokenPattern
	}
	// Go's \w and \b are ASCII; normalized text is ASCII, so the Unicode
	// flag carries no meaning here.
	tokenRe, err := regexp.Compile(strings.TrimPrefix(pattern, "(?u)"))
	if err != nil {
		return nil, fmt.Errorf("%w: token_pattern: %v", ErrMalformed, err)
	}
	if tokenRe.NumSubexp() > 1 {
		return nil, fmt.Errorf("%w: token_pattern has more than one capturing group", ErrMalformed)
	}

	minN, maxN := 1, 1
	if doc.NgramRange != nil {
		if len(doc.NgramRange) != 2 || doc.NgramRange[0] < 1 || doc.NgramRange[0] > doc.NgramRange[1] {
			return nil, fmt.Errorf("%w: ngram_range %v", ErrMalformed, doc.NgramRange)
		}
		minN, maxN = doc.NgramRange[0], doc.NgramRange[1]
	}

	v := &Vectorizer{
		kind:       doc.Kind,
		vocabulary: doc.Vocabulary,
		dim:        dim,
		tokenRe:    tokenRe,
		minN:       minN,
		maxN:       maxN,
		lowercase:  doc.Lowercase == nil || *doc.Lowercase,
		binary:     doc.Binary,
	}
	if len(doc.StopWords) > 0 {
		v.stopWords = make(map[string]struct{}, len(doc.StopWords))
		for _, w := range doc.StopWords {
			v.stopWords[w] = struct{}{}
		}
	}

	if doc.Kind == KindTfidf {
		if doc.IDF != nil && len(doc.IDF) != dim {
			return nil, fmt.Errorf("%w: idf has %d entries for %d terms", ErrDimensionMismatch, len(doc.IDF), dim)
		}
		v.idf = doc.IDF
		v.norm = "l2"
		if doc.Norm != nil {
			v.norm = *doc.Norm
		}
		switch v.norm {
		case "l1", "l2", "none", "":
		default:
			return nil, fmt.Errorf("%w: norm %q", ErrMalformed, v.norm)
		}
		v.sublinearTF = doc.SublinearTF
	} else if doc.IDF != nil || doc.Norm != nil || doc.SublinearTF {
		return nil, fmt.Errorf("%w: tf-idf settings on a count vectorizer", ErrMalformed)
	}

	return v, nil
}

// Dim returns the vocabulary size
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Kind returns the vectorizer kind
func (v *Vectorizer) Kind() string {
	return v.kind
}

// Transform vectorizes a single document. Terms outside the vocabulary are
// ignored.
func (v *Vectorizer) Transform(text string) (core.FeatureVector, error) {
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	out := core.FeatureVector{
		Dim:     v.dim,
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		if idx >= v.dim {
			return core.FeatureVector{}, fmt.Errorf("vocabulary index %d outside dimension %d", idx, v.dim)
		}
		out.Indices = append(out.Indices, idx)
	}
	sort.Ints(out.Indices)
	for _, idx := range out.Indices {
		val := counts[idx]
		if v.binary {
			val = 1
		}
		out.Values = append(out.Values, val)
	}

	if v.kind == KindTfidf {
		v.weight(&out)
	}
	return out, nil
}

// analyze splits a document into terms: tokens, minus stop words, expanded
// into word n-grams
func (v *Vectorizer) analyze(text string) []string {
	if v.lowercase {
		text = strings.ToLower(text)
	}

	var tokens []string
	if v.tokenRe.NumSubexp() == 1 {
		for _, m := range v.tokenRe.FindAllStringSubmatch(text, -1) {
			tokens = append(tokens, m[1])
		}
	} else {
		tokens = v.tokenRe.FindAllString(text, -1)
	}

	if v.stopWords != nil {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.stopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if v.maxN == 1 {
		return tokens
	}

	var terms []string
	minN := v.minN
	if minN == 1 {
		terms = append(terms, tokens...)
		minN = 2
	}
	for n := minN; n <= v.maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// weight applies sublinear tf, idf and normalization in place
func (v *Vectorizer) weight(f *core.FeatureVector) {
	for i, idx := range f.Indices {
		val := f.Values[i]
		if v.sublinearTF {
			val = 1 + math.Log(val)
		}
		if v.idf != nil {
			val *= v.idf[idx]
		}
		f.Values[i] = val
	}

	var norm float64
	switch v.norm {
	case "l2":
		for _, val := range f.Values {
			norm += val * val
		}
		norm = math.Sqrt(norm)
	case "l1":
		for _, val := range f.Values {
			norm += math.Abs(val)
		}
	default:
		return
	}
	if norm == 0 {
		return
	}
	for i := range f.Values {
		f.Values[i] /= norm
	}
}
