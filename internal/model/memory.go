// Package model defines the core coaching data types.
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCategory is returned for an unknown important-memory category.
var ErrInvalidCategory = errors.New("invalid memory category")

// ImportantMemory is a curated insight extracted from a conversation.
// ImportanceScore is always on the 0.0-1.0 scale.
type ImportantMemory struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	MessageID       string    `json:"message_id,omitempty"`
	Content         string    `json:"content"`
	Category        string    `json:"category,omitempty"`
	ImportanceScore float64   `json:"importance_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidCategories are the allowed important-memory categories.
var ValidCategories = map[string]bool{
	"triggers":          true,
	"coping_strategies": true,
	"goals":             true,
	"insights":          true,
	"progress":          true,
}

// ValidateCategory accepts an empty category (uncategorized) or one of ValidCategories.
func ValidateCategory(c string) error {
	if c == "" || ValidCategories[c] {
		return nil
	}
	return fmt.Errorf("%w: %q (valid: triggers, coping_strategies, goals, insights, progress)", ErrInvalidCategory, c)
}

// NormalizeImportance converts an importance score to the 0.0-1.0 scale.
// Values above 1 are read as the 0-100 scale some extraction paths produce.
func NormalizeImportance(score float64) float64 {
	if score > 1 {
		score /= 100
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
