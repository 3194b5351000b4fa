// Package store provides coaching history storage on SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/coach-memory/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConversationEnded is returned when appending to an ended conversation.
	ErrConversationEnded = errors.New("conversation has ended")

	// ErrAlreadyCompleted is returned when completing finished homework.
	ErrAlreadyCompleted = errors.New("homework already completed")
)

// StartParams holds parameters for starting a conversation.
type StartParams struct {
	UserID   string
	Title    string
	IsFormal bool
}

// MessageParams holds parameters for appending a message.
type MessageParams struct {
	ConversationID string
	FromUser       bool
	Content        string
	IsTranscript   bool
}

// MemoryFilter narrows ListImportantMemories.
type MemoryFilter struct {
	UserID        string
	Category      string
	MinImportance float64
	Limit         int // 0 means 20
}

// HomeworkParams holds parameters for assigning homework.
type HomeworkParams struct {
	UserID         string
	ConversationID string
	Title          string
	Description    string
	Technique      string
	DueDate        *time.Time
}

// Store is the full coaching history store. It satisfies memory.Store.
type Store interface {
	StartConversation(ctx context.Context, p StartParams) (*model.Conversation, error)
	Conversation(ctx context.Context, id string) (*model.Conversation, error)
	EndConversation(ctx context.Context, id, summary string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, p MessageParams) (*model.Message, error)

	// Conversations returns the user's conversations started at or after
	// since, oldest first. A zero since returns all of them.
	Conversations(ctx context.Context, userID string, since time.Time) ([]model.Conversation, error)
	// Messages returns a conversation's messages, oldest first.
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
	// RecentUserMessages returns the content of the user's last n messages
	// across all conversations, oldest first.
	RecentUserMessages(ctx context.Context, userID string, n int) ([]string, error)

	AddImportantMemory(ctx context.Context, m model.ImportantMemory) (*model.ImportantMemory, error)
	ImportantMemories(ctx context.Context, userID string) ([]model.ImportantMemory, error)
	ListImportantMemories(ctx context.Context, f MemoryFilter) ([]model.ImportantMemory, error)

	AssignHomework(ctx context.Context, p HomeworkParams) (*model.Homework, error)
	CompleteHomework(ctx context.Context, id, notes string) (*model.Homework, error)
	Homework(ctx context.Context, userID string) ([]model.Homework, error)

	SetRiskProfile(ctx context.Context, userID string, p model.RiskProfile) error
	// RiskProfile returns nil without error when the user has no profile.
	RiskProfile(ctx context.Context, userID string) (*model.RiskProfile, error)
	RecordCrisisEvent(ctx context.Context, e model.CrisisEvent) (*model.CrisisEvent, error)
	CrisisEvents(ctx context.Context, userID string) ([]model.CrisisEvent, error)

	Stats(ctx context.Context, dbPath string) (*Stats, error)
	ExportUser(ctx context.Context, userID string) (*Export, error)
	Import(ctx context.Context, e *Export) (int, error)

	Close() error
}
