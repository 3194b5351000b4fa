// Package memory indexes a user's conversation history and retrieves the
// fragments most relevant to a new query.
//
// Nothing is cached between calls: every retrieval rebuilds the index from
// the current history, so new messages are visible as soon as the caller's
// write has completed. Cost is linear in the user's total message count.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/coach-memory/internal/chunker"
	"github.com/rcliao/coach-memory/internal/model"
	"github.com/rcliao/coach-memory/internal/vectorspace"
)

// Source is the read contract the memory layer needs from storage.
type Source interface {
	// Conversations lists a user's conversations started at or after since
	// (zero means all), in ascending start order.
	Conversations(ctx context.Context, userID string, since time.Time) ([]model.Conversation, error)
	// Messages lists a conversation's messages in ascending created order.
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
	// ImportantMemories lists a user's memories in ascending created order.
	ImportantMemories(ctx context.Context, userID string) ([]model.ImportantMemory, error)
	// Homework lists a user's assignments in ascending created order.
	Homework(ctx context.Context, userID string) ([]model.Homework, error)
}

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	ConversationID    string `json:"conversation_id"`
	ConversationTitle string `json:"conversation_title,omitempty"`
	IsFormalSession   bool   `json:"is_formal_session"`
	SessionNumber     *int   `json:"session_number,omitempty"`
	Date              string `json:"date"`
	FirstMessageID    string `json:"first_message_id"`
	LastMessageID     string `json:"last_message_id"`
}

// Chunk is a window of consecutive messages from one conversation.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Index is a fitted vector space over a user's chunks.
type Index struct {
	Chunks  []Chunk
	Vectors []vectorspace.Vector
	Space   *vectorspace.Space
}

// Empty reports whether the index holds no chunks.
func (ix *Index) Empty() bool { return ix == nil || len(ix.Chunks) == 0 }

// Indexer builds chunk indexes from a Source.
type Indexer struct {
	src  Source
	opts chunker.Options
}

// NewIndexer creates an indexer using windows of chunker.DefaultWindowSize.
func NewIndexer(src Source) *Indexer {
	return &Indexer{src: src, opts: chunker.DefaultOptions()}
}

// Chunks loads every conversation for the user and splits each one into
// message windows. Windows never span two conversations; conversations
// without messages produce no chunks.
func (ix *Indexer) Chunks(ctx context.Context, userID string) ([]Chunk, error) {
	convs, err := ix.src.Conversations(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}

	var chunks []Chunk
	for _, c := range convs {
		msgs, err := ix.src.Messages(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("load messages for %s: %w", c.ID, err)
		}
		for _, w := range chunker.Chunk(msgs, ix.opts) {
			chunks = append(chunks, Chunk{
				Text: w.Text,
				Metadata: ChunkMetadata{
					ConversationID:    c.ID,
					ConversationTitle: c.Title,
					IsFormalSession:   c.IsFormal,
					SessionNumber:     c.SessionNumber,
					Date:              c.StartedAt.Format(time.DateOnly),
					FirstMessageID:    w.FirstMessageID,
					LastMessageID:     w.LastMessageID,
				},
			})
		}
	}
	return chunks, nil
}

// Build chunks the user's history and fits a vector space over the chunk
// texts. A user with no history gets an empty index and no error. If the
// history has no indexable terms the empty index is returned together with
// an error wrapping vectorspace.ErrEmptyVocabulary.
func (ix *Indexer) Build(ctx context.Context, userID string) (*Index, error) {
	chunks, err := ix.Chunks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &Index{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	space := vectorspace.New(vectorspace.DefaultOptions())
	vectors, err := space.FitTransform(texts)
	if err != nil {
		return &Index{}, fmt.Errorf("fit chunks: %w", err)
	}
	return &Index{Chunks: chunks, Vectors: vectors, Space: space}, nil
}
