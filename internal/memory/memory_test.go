package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rcliao/coach-memory/internal/model"
)

// fakeStore keeps everything in memory and returns rows in the orders the
// Source contract requires.
type fakeStore struct {
	mu       sync.Mutex
	convs    []model.Conversation
	msgs     map[string][]model.Message
	memories []model.ImportantMemory
	homework []model.Homework
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{msgs: map[string][]model.Message{}}
}

func (f *fakeStore) Conversations(_ context.Context, userID string, since time.Time) ([]model.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Conversation
	for _, c := range f.convs {
		if c.UserID == userID && !c.StartedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Messages(_ context.Context, conversationID string) ([]model.Message, error) {
	return f.msgs[conversationID], nil
}

func (f *fakeStore) ImportantMemories(_ context.Context, userID string) ([]model.ImportantMemory, error) {
	var out []model.ImportantMemory
	for _, m := range f.memories {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) Homework(_ context.Context, userID string) ([]model.Homework, error) {
	var out []model.Homework
	for _, h := range f.homework {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) AddImportantMemory(_ context.Context, m model.ImportantMemory) (*model.ImportantMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = fmt.Sprintf("mem%d", len(f.memories)+1)
	f.memories = append(f.memories, m)
	return &m, nil
}

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// addConversation adds a conversation whose messages alternate user/coach.
func (f *fakeStore) addConversation(id, userID string, started time.Time, formal bool, texts ...string) {
	c := model.Conversation{ID: id, UserID: userID, Title: "Chat " + id, IsFormal: formal, StartedAt: started}
	if formal {
		n := len(f.convs) + 1
		c.SessionNumber = &n
	}
	f.convs = append(f.convs, c)
	for i, text := range texts {
		f.msgs[id] = append(f.msgs[id], model.Message{
			ID:             fmt.Sprintf("%s-m%d", id, i+1),
			ConversationID: id,
			FromUser:       i%2 == 0,
			Content:        text,
			CreatedAt:      started.Add(time.Duration(i) * time.Minute),
		})
	}
}

func seededStore() *fakeStore {
	f := newFakeStore()
	f.addConversation("c1", "u1", base, true,
		"My boss keeps criticizing my work and I feel anxious before meetings",
		"That sounds stressful. What happens in your body before meetings?",
		"My heart pounds and my hands shake",
		"Let's try a breathing exercise for the next meeting",
	)
	f.addConversation("c2", "u1", base.AddDate(0, 0, 7), false,
		"I visited my sister this weekend and we went hiking",
		"How did the hiking trip feel?",
		"Relaxing, the mountains were beautiful",
	)
	f.addConversation("c3", "u1", base.AddDate(0, 0, 8), false)
	f.addConversation("other", "u2", base, false, "Completely different person talking about meetings")
	return f
}

func TestIndexChunks(t *testing.T) {
	ix := NewIndexer(seededStore())
	chunks, err := ix.Chunks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	// c1 has 4 messages -> 2 chunks, c2 has 3 -> 1, c3 has none.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.ConversationID != "c1" || chunks[1].Metadata.ConversationID != "c1" {
		t.Error("expected first two chunks from c1")
	}
	if chunks[1].Metadata.FirstMessageID != "c1-m4" || chunks[1].Metadata.LastMessageID != "c1-m4" {
		t.Errorf("unexpected bounds for short chunk: %+v", chunks[1].Metadata)
	}
	if chunks[2].Metadata.ConversationID != "c2" || chunks[2].Metadata.IsFormalSession {
		t.Errorf("unexpected metadata: %+v", chunks[2].Metadata)
	}
	if chunks[0].Metadata.Date != "2025-03-01" {
		t.Errorf("expected date 2025-03-01, got %s", chunks[0].Metadata.Date)
	}
	if !strings.HasPrefix(chunks[0].Text, "User: My boss") || !strings.Contains(chunks[0].Text, "\nCoach: ") {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
}

func TestRetrieveRelevantContext(t *testing.T) {
	svc := NewService(seededStore())
	ctx := context.Background()

	results, err := svc.RetrieveRelevantContext(ctx, "anxious about meetings at work", "u1", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Metadata.ConversationID != "c1" {
		t.Errorf("expected top result from c1, got %s", results[0].Metadata.ConversationID)
	}
	for i, r := range results {
		if r.SimilarityScore <= RelevanceFloor {
			t.Errorf("result %d below relevance floor: %f", i, r.SimilarityScore)
		}
		if i > 0 && r.SimilarityScore > results[i-1].SimilarityScore {
			t.Errorf("results not sorted at %d", i)
		}
	}

	// Same query, no writes in between: identical ranking.
	again, err := svc.RetrieveRelevantContext(ctx, "anxious about meetings at work", "u1", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(again) != len(results) {
		t.Fatalf("expected %d results, got %d", len(results), len(again))
	}
	for i := range results {
		if again[i].Text != results[i].Text || again[i].SimilarityScore != results[i].SimilarityScore {
			t.Errorf("result %d differs between calls", i)
		}
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	svc := NewService(seededStore())
	results, err := svc.RetrieveRelevantContext(context.Background(), "meetings hiking sister boss", "u1", 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestRetrieveNoMatch(t *testing.T) {
	svc := NewService(seededStore())
	results, err := svc.RetrieveRelevantContext(context.Background(), "quantum chromodynamics", "u1", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestEmptyHistory(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	results, err := svc.RetrieveRelevantContext(ctx, "anything", "nobody", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}

	themes, err := svc.RecentThemes(ctx, "nobody", 30, 2)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if len(themes) != 0 {
		t.Errorf("expected no themes, got %v", themes)
	}
}

func TestRetrieveStorageError(t *testing.T) {
	f := newFakeStore()
	f.err = errors.New("disk on fire")
	svc := NewService(f)
	if _, err := svc.RetrieveRelevantContext(context.Background(), "q", "u1", 5); err == nil {
		t.Error("expected storage error to propagate")
	}
}

func TestRankTieKeepsChunkOrder(t *testing.T) {
	f := newFakeStore()
	f.addConversation("a", "u1", base, false, "gardening tomatoes")
	f.addConversation("b", "u1", base.AddDate(0, 0, 1), false, "gardening tomatoes")
	ix, err := NewIndexer(f).Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	results := ix.Rank("gardening", 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Metadata.ConversationID != "a" {
		t.Errorf("expected tie to keep chunk order, got %s first", results[0].Metadata.ConversationID)
	}
}

func TestExtractThemes(t *testing.T) {
	msgs := []string{
		"Work stress again today, the deadline stress is unbearable",
		"My sleep is bad because of work stress",
		"I tried journaling about sleep and work, always work",
	}
	themes := ExtractThemes(msgs, 2)
	if len(themes) == 0 {
		t.Fatal("expected themes")
	}
	if themes[0].Theme != "work" {
		t.Errorf("expected 'work' as top theme, got %q", themes[0].Theme)
	}
	seen := map[string]bool{}
	for i, th := range themes {
		seen[th.Theme] = true
		if th.ImportanceScore <= 0.01 {
			t.Errorf("theme %q below weight floor", th.Theme)
		}
		if i > 0 && th.ImportanceScore > themes[i-1].ImportanceScore {
			t.Errorf("themes not sorted at %d", i)
		}
	}
	if !seen["work stress"] {
		t.Errorf("expected bigram 'work stress', got %v", themes)
	}
	if seen["journaling"] {
		t.Error("'journaling' occurs once and should be below min occurrences")
	}
}

func TestExtractThemesDegenerate(t *testing.T) {
	tests := [][]string{nil, {""}, {"   ", "\n"}, {"the and of"}, {"unique words only"}}
	for _, msgs := range tests {
		if themes := ExtractThemes(msgs, 2); len(themes) != 0 {
			t.Errorf("%q: expected no themes, got %v", msgs, themes)
		}
	}
}

func TestExtractThemesTopTen(t *testing.T) {
	var words []string
	for i := 0; i < 20; i++ {
		w := fmt.Sprintf("topic%c", 'a'+i)
		words = append(words, w, w)
	}
	if themes := ExtractThemes([]string{strings.Join(words, " . ")}, 2); len(themes) != 10 {
		t.Errorf("expected 10 themes, got %d", len(themes))
	}
}

func TestRecentThemesWindow(t *testing.T) {
	f := newFakeStore()
	f.addConversation("old", "u1", base.AddDate(0, -3, 0), false,
		"gardening gardening gardening", "coach reply")
	f.addConversation("new", "u1", base.AddDate(0, 0, -2), false,
		"running running every morning", "coach reply about running running")

	svc := NewService(f, WithClock(func() time.Time { return base }))
	themes, err := svc.RecentThemes(context.Background(), "u1", 30, 2)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	got := map[string]bool{}
	for _, th := range themes {
		got[th.Theme] = true
	}
	if !got["running"] {
		t.Errorf("expected 'running' theme, got %v", themes)
	}
	if got["gardening"] {
		t.Error("conversation outside the window should be ignored")
	}
	if len(themes) != 1 {
		// Coach messages are excluded, so "running" appears only twice.
		t.Errorf("expected only 'running', got %v", themes)
	}
}

func TestTimeline(t *testing.T) {
	f := seededStore()
	ended := base.Add(50 * time.Minute)
	f.convs[0].EndedAt = &ended
	f.memories = []model.ImportantMemory{
		{ID: "m1", UserID: "u1", Content: "Breathing helps", Category: "coping_strategies", ImportanceScore: 0.8, CreatedAt: base.Add(time.Hour)},
	}
	done := base.AddDate(0, 0, 3)
	f.homework = []model.Homework{
		{ID: "h1", UserID: "u1", Title: "Thought record", CreatedAt: base.Add(2 * time.Hour), CompletedAt: &done, CompletionNotes: "Helpful"},
		{ID: "h2", UserID: "u1", Title: "Sleep diary", CreatedAt: base.AddDate(0, 0, 1)},
	}

	events, err := NewService(f).Timeline(context.Background(), "u1")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}

	wantTypes := []string{EventFormalSession, EventImportantMemory, EventHomeworkAssigned, EventHomeworkAssigned, EventHomeworkCompleted}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d: got %s, want %s", i, events[i].Type, want)
		}
		if i > 0 && events[i].Date.Before(events[i-1].Date) {
			t.Errorf("events not chronological at %d", i)
		}
	}
	if events[0].Details["duration_minutes"] != 50.0 {
		t.Errorf("expected 50 minute session, got %v", events[0].Details["duration_minutes"])
	}
	if events[1].Title != "Memory: Coping_strategies" {
		t.Errorf("unexpected memory title %q", events[1].Title)
	}
	if events[4].Details["days_to_complete"] != 2 {
		t.Errorf("expected 2 days to complete, got %v", events[4].Details["days_to_complete"])
	}
}

func TestBuildTimelineStableTies(t *testing.T) {
	n := 1
	events := BuildTimeline(
		[]model.Conversation{{ID: "s", IsFormal: true, SessionNumber: &n, StartedAt: base}},
		[]model.ImportantMemory{{ID: "m", CreatedAt: base}},
		[]model.Homework{{ID: "h", Title: "x", CreatedAt: base}},
	)
	want := []string{EventFormalSession, EventImportantMemory, EventHomeworkAssigned}
	for i, w := range want {
		if events[i].Type != w {
			t.Errorf("event %d: got %s, want %s", i, events[i].Type, w)
		}
	}
	if events[0].Title != "Session #1" {
		t.Errorf("expected default session title, got %q", events[0].Title)
	}
}

func TestRemember(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     MemoryInput
		stored bool
		score  float64
	}{
		{"above threshold", MemoryInput{UserID: "u1", Content: "Crowds trigger panic", Category: "triggers", ImportanceScore: 0.9}, true, 0.9},
		{"percent scale", MemoryInput{UserID: "u1", Content: "Wants to run a 10k", Category: "goals", ImportanceScore: 75}, true, 0.75},
		{"at threshold", MemoryInput{UserID: "u1", Content: "Likes tea", ImportanceScore: 0.6}, false, 0},
		{"below threshold", MemoryInput{UserID: "u1", Content: "Had lunch", ImportanceScore: 0.2}, false, 0},
		{"blank content", MemoryInput{UserID: "u1", Content: "  ", ImportanceScore: 0.9}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, stored, err := svc.Remember(ctx, tt.in)
			if err != nil {
				t.Fatalf("remember: %v", err)
			}
			if stored != tt.stored {
				t.Fatalf("stored = %v, want %v", stored, tt.stored)
			}
			if stored && m.ImportanceScore != tt.score {
				t.Errorf("score = %v, want %v", m.ImportanceScore, tt.score)
			}
		})
	}

	if _, _, err := svc.Remember(ctx, MemoryInput{UserID: "u1", Content: "x", Category: "bogus", ImportanceScore: 0.9}); !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
	if len(f.memories) != 2 {
		t.Errorf("expected 2 stored memories, got %d", len(f.memories))
	}
}
