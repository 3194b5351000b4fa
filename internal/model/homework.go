package model

import "time"

// Homework is a therapeutic exercise assigned between sessions.
type Homework struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ConversationID  string     `json:"conversation_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Technique       string     `json:"technique,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Completed reports whether the assignment has a completion date.
func (h Homework) Completed() bool { return h.CompletedAt != nil }
