package model

import "time"

// Conversation is a bounded sequence of messages for one user.
// SessionNumber is set only for formal sessions.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title,omitempty"`
	IsFormal      bool       `json:"is_formal_session"`
	SessionNumber *int       `json:"session_number,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Summary       string     `json:"summary,omitempty"`
}

// Ended reports whether the conversation no longer accepts messages.
func (c Conversation) Ended() bool { return c.EndedAt != nil }

// Message is a single utterance in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	FromUser       bool      `json:"from_user"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	IsTranscript   bool      `json:"is_transcript,omitempty"`
}

// Author returns the display label used when rendering a message.
func (m Message) Author() string {
	if m.FromUser {
		return "User"
	}
	return "Coach"
}
