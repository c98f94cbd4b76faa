package store

import (
	"fmt"
)

func (s *Store) CreateSession(fs *FocusSession) error {
	_, err := s.db.NamedExec(
		`INSERT INTO sessions (id, date, task_id, mode, planned_minutes, started_at, ended_at, duration_seconds)
		 VALUES (:id, :date, :task_id, :mode, :planned_minutes, :started_at, :ended_at, :duration_seconds)`,
		fs,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ListSessions returns sessions whose date lies in [from, to], oldest first.
// Empty bounds are open.
func (s *Store) ListSessions(from, to string) ([]FocusSession, error) {
	query := `SELECT id, date, task_id, mode, planned_minutes, started_at, ended_at, duration_seconds
		FROM sessions WHERE 1=1`
	var args []any
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY started_at`

	var sessions []FocusSession
	if err := s.db.Select(&sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FocusSecondsByDate sums session durations per date in [from, to].
func (s *Store) FocusSecondsByDate(from, to string) ([]DailyCount, error) {
	var out []DailyCount
	err := s.db.Select(&out, `
		SELECT date, COALESCE(SUM(duration_seconds), 0) AS n
		FROM sessions
		WHERE date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("focus by date: %w", err)
	}
	return out, nil
}
