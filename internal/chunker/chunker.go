// Package chunker splits a conversation's messages into fixed-size windows
// for memory indexing.
package chunker

import (
	"strings"

	"github.com/rcliao/coach-memory/internal/model"
)

const DefaultWindowSize = 3

// Options configures chunking behavior.
type Options struct {
	WindowSize int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{WindowSize: DefaultWindowSize}
}

// ChunkResult is one window of consecutive messages from a single conversation.
type ChunkResult struct {
	Text           string
	FirstMessageID string
	LastMessageID  string
	Messages       int
}

// Chunk groups messages into consecutive windows of opts.WindowSize.
// The last window may be shorter; windows are never padded. Messages must
// belong to one conversation and already be in created_at order.
func Chunk(msgs []model.Message, opts Options) []ChunkResult {
	size := opts.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}
	if len(msgs) == 0 {
		return nil
	}

	chunks := make([]ChunkResult, 0, (len(msgs)+size-1)/size)
	for i := 0; i < len(msgs); i += size {
		end := min(i+size, len(msgs))
		window := msgs[i:end]
		chunks = append(chunks, ChunkResult{
			Text:           Render(window),
			FirstMessageID: window[0].ID,
			LastMessageID:  window[len(window)-1].ID,
			Messages:       len(window),
		})
	}
	return chunks
}

// Render formats messages as "User: ..." / "Coach: ..." lines.
func Render(msgs []model.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Author())
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
