package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/coach-memory/internal/logger"
	"github.com/rcliao/coach-memory/internal/model"
	"github.com/rcliao/coach-memory/internal/vectorspace"
)

// DefaultImportanceThreshold is the score an extracted memory must exceed
// to be stored.
const DefaultImportanceThreshold = 0.6

// Store is a Source that can also persist important memories.
type Store interface {
	Source
	AddImportantMemory(ctx context.Context, m model.ImportantMemory) (*model.ImportantMemory, error)
}

// Service exposes retrieval, theming, timeline and memory curation for the
// users of a Store.
type Service struct {
	store     Store
	indexer   *Indexer
	log       *logger.Logger
	threshold float64
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithImportanceThreshold overrides DefaultImportanceThreshold.
func WithImportanceThreshold(t float64) Option {
	return func(s *Service) { s.threshold = t }
}

// WithClock sets the time source used for theme windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		indexer:   NewIndexer(store),
		log:       logger.Nop(),
		threshold: DefaultImportanceThreshold,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RetrieveRelevantContext rebuilds the user's index and returns the chunks
// most similar to query. Storage errors are returned; an empty or
// unindexable history yields an empty result.
func (s *Service) RetrieveRelevantContext(ctx context.Context, query, userID string, maxResults int) ([]Result, error) {
	ix, err := s.indexer.Build(ctx, userID)
	if err != nil {
		if !errors.Is(err, vectorspace.ErrEmptyVocabulary) {
			return nil, err
		}
		s.log.Debug("history has no indexable terms", "user_id", userID)
	}
	results := ix.Rank(query, maxResults)
	s.log.Debug("retrieved context",
		"user_id", userID, "chunks", len(ix.Chunks), "results", len(results))
	return results, nil
}

// RecentThemes extracts themes from the user-authored messages of
// conversations started within the last days days.
func (s *Service) RecentThemes(ctx context.Context, userID string, days, minOccurrences int) ([]Theme, error) {
	since := s.now().AddDate(0, 0, -days)
	convs, err := s.store.Conversations(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}

	var texts []string
	for _, c := range convs {
		msgs, err := s.store.Messages(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load messages for %s: %w", c.ID, err)
		}
		for _, m := range msgs {
			if m.FromUser {
				texts = append(texts, m.Content)
			}
		}
	}

	themes := ExtractThemes(texts, minOccurrences)
	if len(themes) == 0 && len(texts) > 0 {
		s.log.Debug("no themes above threshold", "user_id", userID, "messages", len(texts))
	}
	return themes, nil
}

// Timeline fetches the user's sessions, memories and homework concurrently
// and merges them into one chronological feed.
func (s *Service) Timeline(ctx context.Context, userID string) ([]TimelineEvent, error) {
	var (
		convs    []model.Conversation
		memories []model.ImportantMemory
		homework []model.Homework
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		convs, err = s.store.Conversations(gctx, userID, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		memories, err = s.store.ImportantMemories(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		homework, err = s.store.Homework(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}

	sessions := lo.Filter(convs, func(c model.Conversation, _ int) bool { return c.IsFormal })
	return BuildTimeline(sessions, memories, homework), nil
}

// MemoryInput is a candidate important memory, typically produced by an
// extraction step over a conversation.
type MemoryInput struct {
	UserID         string
	ConversationID string
	MessageID      string
	Content        string
	Category       string
	// ImportanceScore is on the 0-1 scale; values above 1 are read as 0-100.
	ImportanceScore float64
}

// Remember stores in as an important memory when its normalized importance
// exceeds the service threshold. The bool reports whether it was stored.
func (s *Service) Remember(ctx context.Context, in MemoryInput) (*model.ImportantMemory, bool, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, false, nil
	}
	if err := model.ValidateCategory(in.Category); err != nil {
		return nil, false, err
	}
	score := model.NormalizeImportance(in.ImportanceScore)
	if score <= s.threshold {
		s.log.Debug("memory below importance threshold", "user_id", in.UserID, "score", score)
		return nil, false, nil
	}

	m, err := s.store.AddImportantMemory(ctx, model.ImportantMemory{
		UserID:          in.UserID,
		ConversationID:  in.ConversationID,
		MessageID:       in.MessageID,
		Content:         content,
		Category:        in.Category,
		ImportanceScore: score,
	})
	if err != nil {
		return nil, false, fmt.Errorf("store memory: %w", err)
	}
	s.log.Info("stored important memory", "user_id", in.UserID, "category", in.Category, "score", score)
	return m, true, nil
}
