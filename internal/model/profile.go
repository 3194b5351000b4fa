package model

import "time"

// RiskProfile holds baseline self-reported scores on a 0-10 scale.
// Either score may be unknown.
type RiskProfile struct {
	AnxietyScore    *int `json:"anxiety_score,omitempty"`
	DepressionScore *int `json:"depression_score,omitempty"`
}

// CrisisEvent is a persisted record of a detected crisis.
type CrisisEvent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id,omitempty"`
	Message         string    `json:"message"`
	Categories      []string  `json:"categories"`
	RiskLevel       string    `json:"risk_level"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}
