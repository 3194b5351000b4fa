// Package vectorspace implements a TF-IDF vector space over short texts.
//
// A Space learns a vocabulary of unigrams and bigrams from a batch of
// documents and projects any later text into that same vocabulary. Queries
// must be projected with Transform on the space fitted over the corpus;
// refitting on the query alone makes similarity scores meaningless.
package vectorspace

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrNotFitted is returned by Transform on a space that was never fitted.
	ErrNotFitted = errors.New("vectorspace: transform called before fit")

	// ErrEmptyVocabulary is returned when fitting leaves no terms, either
	// because every token is a stop word or because pruning removed them all.
	ErrEmptyVocabulary = errors.New("vectorspace: empty vocabulary")
)

// tokenRe matches runs of two or more letters, digits or underscores.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Options configures vocabulary learning.
type Options struct {
	// MinDF is the minimum number of documents a term must appear in.
	// Values <= 1 keep every term.
	MinDF int
	// MinCount is the minimum number of occurrences of a term across all
	// documents. A single document has a document frequency of 1 for every
	// term, so MinCount is the floor that still prunes there.
	MinCount int
	// MaxDF is the maximum share of documents a term may appear in.
	// Values <= 0 or >= 1 disable the ceiling. With a single document every
	// term has a share of 1.0, so the ceiling is not applied there.
	MaxDF float64
	// MaxN is the longest n-gram to index. Zero means 2.
	MaxN int
	// StopWords are dropped before n-grams are formed. Nil means English.
	StopWords map[string]bool
}

// DefaultOptions returns the unpruned unigram+bigram configuration.
func DefaultOptions() Options {
	return Options{MaxN: 2, StopWords: EnglishStopWords}
}

// Vector is a sparse fingerprint: term index to weight.
// Fitted vectors are L2-normalized; an empty Vector is the zero vector.
type Vector map[int]float64

// TermWeight pairs a vocabulary term with its weight in a Vector.
type TermWeight struct {
	Term   string
	Weight float64
}

// Space is a fitted (or not yet fitted) TF-IDF vocabulary.
type Space struct {
	opts  Options
	vocab map[string]int
	terms []string
	idf   []float64
}

// New creates an unfitted space.
func New(opts Options) *Space {
	if opts.MaxN <= 0 {
		opts.MaxN = 2
	}
	if opts.StopWords == nil {
		opts.StopWords = EnglishStopWords
	}
	return &Space{opts: opts}
}

// Fitted reports whether the space has a vocabulary.
func (s *Space) Fitted() bool { return s.vocab != nil }

// Terms returns the fitted vocabulary in index order.
func (s *Space) Terms() []string { return s.terms }

// FitTransform learns the vocabulary over docs and returns one vector per doc.
// On error the space is left unchanged.
func (s *Space) FitTransform(docs []string) ([]Vector, error) {
	counts := make([]map[string]int, len(docs))
	df := map[string]int{}
	total := map[string]int{}
	for i, d := range docs {
		counts[i] = s.termCounts(d)
		for term, c := range counts[i] {
			df[term]++
			total[term] += c
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	n := float64(len(docs))
	maxCount := math.Inf(1)
	if s.opts.MaxDF > 0 && s.opts.MaxDF < 1 && len(docs) > 1 {
		maxCount = s.opts.MaxDF * n
	}

	var terms []string
	for term, c := range df {
		if c < s.opts.MinDF || total[term] < s.opts.MinCount || float64(c) > maxCount {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		// smoothed idf: every term behaves as if seen in one extra document
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	s.vocab, s.terms, s.idf = vocab, terms, idf

	vectors := make([]Vector, len(docs))
	for i, c := range counts {
		vectors[i] = s.weigh(c)
	}
	return vectors, nil
}

// Transform projects text into the fitted vocabulary. Terms outside the
// vocabulary are ignored, so the result may be the zero vector.
func (s *Space) Transform(text string) (Vector, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	return s.weigh(s.termCounts(text)), nil
}

// Weights lists the non-zero terms of v, heaviest first.
// Equal weights are ordered alphabetically.
func (s *Space) Weights(v Vector) []TermWeight {
	out := make([]TermWeight, 0, len(v))
	for idx, w := range v {
		if idx < 0 || idx >= len(s.terms) || w == 0 {
			continue
		}
		out = append(out, TermWeight{Term: s.terms[idx], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	return out
}

func (s *Space) weigh(counts map[string]int) Vector {
	v := Vector{}
	for term, c := range counts {
		if idx, ok := s.vocab[term]; ok {
			v[idx] = float64(c) * s.idf[idx]
		}
	}
	norm := v.norm()
	if norm == 0 {
		return v
	}
	for idx := range v {
		v[idx] /= norm
	}
	return v
}

// termCounts tokenizes, drops stop words, and counts 1..MaxN-grams.
func (s *Space) termCounts(text string) map[string]int {
	var tokens []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if !s.opts.StopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	counts := map[string]int{}
	for n := 1; n <= s.opts.MaxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+n], " ")]++
		}
	}
	return counts
}

// Similarity is the cosine similarity of two fingerprints, in [0, 1].
// Anything compared with the zero vector scores 0.
func Similarity(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for _, idx := range a.indices() {
		dot += a[idx] * b[idx]
	}
	normA, normB := a.norm(), b.norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (normA * normB)
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

// norm and the dot product iterate in index order so that repeated
// computations over the same vectors give bit-identical results.
func (v Vector) norm() float64 {
	var sum float64
	for _, idx := range v.indices() {
		sum += v[idx] * v[idx]
	}
	return math.Sqrt(sum)
}

func (v Vector) indices() []int {
	idx := make([]int, 0, len(v))
	for i := range v {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
