package store

import (
	"context"
	"os"

	sq "github.com/Masterminds/squirrel"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string `json:"db_path"`
	DBSizeBytes    int64  `json:"db_size_bytes"`
	Users          int    `json:"users"`
	Conversations  int    `json:"conversations"`
	FormalSessions int    `json:"formal_sessions"`
	Messages       int    `json:"messages"`
	Memories       int    `json:"important_memories"`
	Homework       int    `json:"homework"`
	OpenHomework   int    `json:"open_homework"`
	CrisisEvents   int    `json:"crisis_events"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		dst *int
		q   sq.SelectBuilder
	}{
		{&st.Users, sq.Select("COUNT(DISTINCT user_id)").From("conversations")},
		{&st.Conversations, sq.Select("COUNT(*)").From("conversations")},
		{&st.FormalSessions, sq.Select("COUNT(*)").From("conversations").Where(sq.Eq{"is_formal": true})},
		{&st.Messages, sq.Select("COUNT(*)").From("messages")},
		{&st.Memories, sq.Select("COUNT(*)").From("important_memories")},
		{&st.Homework, sq.Select("COUNT(*)").From("homework")},
		{&st.OpenHomework, sq.Select("COUNT(*)").From("homework").Where(sq.Eq{"completed_at": nil})},
		{&st.CrisisEvents, sq.Select("COUNT(*)").From("crisis_events")},
	}
	for _, c := range counts {
		row, err := queryRow(ctx, s.db, c.q)
		if err != nil {
			return st, err
		}
		if err := row.Scan(c.dst); err != nil {
			return st, err
		}
	}
	return st, nil
}
