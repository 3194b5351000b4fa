package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/coach-memory/internal/model"
)

// Timeline event types.
const (
	EventFormalSession     = "formal_session"
	EventImportantMemory   = "important_memory"
	EventHomeworkAssigned  = "homework_assigned"
	EventHomeworkCompleted = "homework_completed"
)

// TimelineEvent is one entry in a user's therapeutic timeline.
type TimelineEvent struct {
	Type    string         `json:"type"`
	Date    time.Time      `json:"date"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details"`
}

// BuildTimeline merges formal sessions, important memories and homework
// into one list ordered by date. Informal conversations in sessions are
// skipped. A completed assignment contributes two events. Events with the
// same date keep their input order: sessions, then memories, then homework.
func BuildTimeline(sessions []model.Conversation, memories []model.ImportantMemory, homework []model.Homework) []TimelineEvent {
	events := []TimelineEvent{}

	for _, s := range sessions {
		if !s.IsFormal {
			continue
		}
		title := s.Title
		if title == "" {
			title = "Session"
			if s.SessionNumber != nil {
				title = fmt.Sprintf("Session #%d", *s.SessionNumber)
			}
		}
		var duration any
		if s.EndedAt != nil {
			duration = s.EndedAt.Sub(s.StartedAt).Minutes()
		}
		events = append(events, TimelineEvent{
			Type:  EventFormalSession,
			Date:  s.StartedAt,
			Title: title,
			Details: map[string]any{
				"session_number":   s.SessionNumber,
				"conversation_id":  s.ID,
				"duration_minutes": duration,
			},
		})
	}

	for _, m := range memories {
		title := "Important Memory"
		if m.Category != "" {
			title = "Memory: " + capitalize(m.Category)
		}
		events = append(events, TimelineEvent{
			Type:  EventImportantMemory,
			Date:  m.CreatedAt,
			Title: title,
			Details: map[string]any{
				"content":          m.Content,
				"category":         m.Category,
				"importance_score": m.ImportanceScore,
			},
		})
	}

	for _, h := range homework {
		events = append(events, TimelineEvent{
			Type:  EventHomeworkAssigned,
			Date:  h.CreatedAt,
			Title: "Homework: " + h.Title,
			Details: map[string]any{
				"homework_id": h.ID,
				"description": h.Description,
				"technique":   h.Technique,
				"due_date":    h.DueDate,
			},
		})
		if h.Completed() {
			events = append(events, TimelineEvent{
				Type:  EventHomeworkCompleted,
				Date:  *h.CompletedAt,
				Title: "Completed: " + h.Title,
				Details: map[string]any{
					"homework_id":      h.ID,
					"completion_notes": h.CompletionNotes,
					"days_to_complete": int(h.CompletedAt.Sub(h.CreatedAt).Hours() / 24),
				},
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// capitalize upper-cases the first letter and lower-cases the rest,
// so "coping_strategies" becomes "Coping_strategies".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
