package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/coach-memory/internal/model"
)

// ExportVersion is bumped when the Export layout changes.
const ExportVersion = 1

// Export is one user's complete coaching history.
type Export struct {
	Version       int                     `json:"version"`
	UserID        string                  `json:"user_id"`
	ExportedAt    time.Time               `json:"exported_at"`
	Conversations []model.Conversation    `json:"conversations"`
	Messages      []model.Message         `json:"messages"`
	Memories      []model.ImportantMemory `json:"important_memories"`
	Homework      []model.Homework        `json:"homework"`
	RiskProfile   *model.RiskProfile      `json:"risk_profile,omitempty"`
	CrisisEvents  []model.CrisisEvent     `json:"crisis_events"`
}

// ExportUser collects everything stored for userID.
func (s *SQLiteStore) ExportUser(ctx context.Context, userID string) (*Export, error) {
	e := &Export{Version: ExportVersion, UserID: userID, ExportedAt: now(), Messages: []model.Message{}}

	var err error
	if e.Conversations, err = s.Conversations(ctx, userID, time.Time{}); err != nil {
		return nil, fmt.Errorf("export conversations: %w", err)
	}
	for _, c := range e.Conversations {
		msgs, err := s.Messages(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("export messages: %w", err)
		}
		e.Messages = append(e.Messages, msgs...)
	}
	if e.Memories, err = s.ImportantMemories(ctx, userID); err != nil {
		return nil, fmt.Errorf("export memories: %w", err)
	}
	if e.Homework, err = s.Homework(ctx, userID); err != nil {
		return nil, fmt.Errorf("export homework: %w", err)
	}
	if e.RiskProfile, err = s.RiskProfile(ctx, userID); err != nil {
		return nil, fmt.Errorf("export risk profile: %w", err)
	}
	if e.CrisisEvents, err = s.CrisisEvents(ctx, userID); err != nil {
		return nil, fmt.Errorf("export crisis events: %w", err)
	}
	return e, nil
}

// Import stores an export in one transaction, keeping its IDs and
// timestamps. Rows whose ID already exists are skipped. It returns the
// number of rows written.
func (s *SQLiteStore) Import(ctx context.Context, e *Export) (int, error) {
	if e.Version > ExportVersion {
		return 0, fmt.Errorf("unsupported export version %d", e.Version)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const skip = "OR IGNORE"
	var total int64
	add := func(n int64, err error) error {
		total += n
		return err
	}

	for _, c := range e.Conversations {
		if err := add(insertConversation(ctx, tx, c, skip)); err != nil {
			return 0, err
		}
	}
	for _, m := range e.Messages {
		if err := add(insertMessage(ctx, tx, m, skip)); err != nil {
			return 0, err
		}
	}
	for _, m := range e.Memories {
		m.ImportanceScore = model.NormalizeImportance(m.ImportanceScore)
		if err := add(insertMemory(ctx, tx, m, skip)); err != nil {
			return 0, err
		}
	}
	for _, h := range e.Homework {
		if err := add(insertHomework(ctx, tx, h, skip)); err != nil {
			return 0, err
		}
	}
	for _, ev := range e.CrisisEvents {
		if ev.Categories == nil {
			ev.Categories = []string{}
		}
		if err := add(insertCrisisEvent(ctx, tx, ev, skip)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if e.RiskProfile != nil && e.UserID != "" {
		if err := s.SetRiskProfile(ctx, e.UserID, *e.RiskProfile); err != nil {
			return int(total), err
		}
		total++
	}
	return int(total), nil
}
