package vectorspace

import (
	"errors"
	"math"
	"testing"
)

func TestFitTransformBigrams(t *testing.T) {
	s := New(DefaultOptions())
	vecs, err := s.FitTransform([]string{"Panic attacks at work", "work deadlines cause panic"})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}

	want := map[string]bool{"panic": true, "panic attacks": true, "work deadlines": true}
	for _, term := range s.Terms() {
		delete(want, term)
		if term == "at" {
			t.Error("stop word 'at' should not be in vocabulary")
		}
	}
	if len(want) != 0 {
		t.Errorf("missing terms: %v", want)
	}
}

func TestSimilaritySelfAndBounds(t *testing.T) {
	s := New(DefaultOptions())
	docs := []string{
		"I felt anxious before the meeting",
		"Breathing exercises helped with the anxious feeling",
		"We talked about my sister's wedding",
	}
	vecs, err := s.FitTransform(docs)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	for i, a := range vecs {
		if got := Similarity(a, a); math.Abs(got-1) > 1e-9 {
			t.Errorf("doc %d: self similarity %f, want 1", i, got)
		}
		for j, b := range vecs {
			sim := Similarity(a, b)
			if sim < 0 || sim > 1 {
				t.Errorf("similarity(%d,%d) = %f out of [0,1]", i, j, sim)
			}
			if rev := Similarity(b, a); math.Abs(rev-sim) > 1e-12 {
				t.Errorf("similarity not symmetric: %f vs %f", sim, rev)
			}
		}
	}
	if Similarity(vecs[0], vecs[1]) <= Similarity(vecs[0], vecs[2]) {
		t.Error("expected anxious docs to be closer than unrelated doc")
	}
}

func TestZeroVector(t *testing.T) {
	s := New(DefaultOptions())
	vecs, err := s.FitTransform([]string{"sleep schedule", "morning walk"})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	q, err := s.Transform("the and of")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(q) != 0 {
		t.Fatalf("expected zero vector, got %v", q)
	}
	if got := Similarity(q, vecs[0]); got != 0 {
		t.Errorf("expected 0 similarity for zero vector, got %f", got)
	}
	if got := Similarity(q, q); got != 0 {
		t.Errorf("expected 0 for zero vs zero, got %f", got)
	}
}

func TestTransformBeforeFit(t *testing.T) {
	s := New(DefaultOptions())
	if _, err := s.Transform("anything"); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestEmptyVocabulary(t *testing.T) {
	tests := []struct {
		name string
		docs []string
		opts Options
	}{
		{"no docs", nil, DefaultOptions()},
		{"whitespace", []string{"   "}, DefaultOptions()},
		{"stop words only", []string{"the and of it"}, DefaultOptions()},
		{"count floor", []string{"one lonely word"}, Options{MinCount: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.opts)
			if _, err := s.FitTransform(tt.docs); !errors.Is(err, ErrEmptyVocabulary) {
				t.Errorf("expected ErrEmptyVocabulary, got %v", err)
			}
			if s.Fitted() {
				t.Error("failed fit should leave space unfitted")
			}
		})
	}
}

func TestMaxDFCeiling(t *testing.T) {
	s := New(Options{MaxDF: 0.5})
	_, err := s.FitTransform([]string{"sleep badly", "sleep well", "sleep again"})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, term := range s.Terms() {
		if term == "sleep" {
			t.Error("'sleep' appears in every doc and should be pruned by MaxDF")
		}
	}
}

func TestWeightsOrdering(t *testing.T) {
	s := New(Options{MinCount: 2})
	vecs, err := s.FitTransform([]string{"work stress work stress work sleep sleep family"})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	ws := s.Weights(vecs[0])
	if len(ws) == 0 {
		t.Fatal("expected weights")
	}
	if ws[0].Term != "work" {
		t.Errorf("expected heaviest term 'work', got %q", ws[0].Term)
	}
	for i := 1; i < len(ws); i++ {
		if ws[i].Weight > ws[i-1].Weight {
			t.Errorf("weights not descending at %d", i)
		}
	}
	for _, w := range ws {
		if w.Term == "family" {
			t.Error("'family' occurs once and should be below MinCount")
		}
	}
}
