package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

func (s *Store) CreateDoneLog(l *DoneLog) error {
	return createDoneLog(s.db, l)
}

func createDoneLog(db sqlx.Ext, l *DoneLog) error {
	_, err := sqlx.NamedExec(db,
		`INSERT INTO logs (id, task_id, date, title, created_at) VALUES (:id, :task_id, :date, :title, :created_at)`,
		l,
	)
	if err != nil {
		return fmt.Errorf("create done log: %w", err)
	}
	return nil
}

// DeleteDoneLogsForTask removes every completion record of taskID.
func (s *Store) DeleteDoneLogsForTask(taskID string) error {
	return deleteDoneLogsForTask(s.db, taskID)
}

func deleteDoneLogsForTask(db sqlx.Execer, taskID string) error {
	if _, err := db.Exec(`DELETE FROM logs WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete done logs for %s: %w", taskID, err)
	}
	return nil
}

func (s *Store) ListDoneLogs(date string) ([]DoneLog, error) {
	var logs []DoneLog
	err := s.db.Select(&logs,
		`SELECT id, task_id, date, title, created_at FROM logs WHERE date = ? ORDER BY created_at`, date)
	if err != nil {
		return nil, fmt.Errorf("list done logs %s: %w", date, err)
	}
	return logs, nil
}

func (s *Store) ListDoneLogsForTask(taskID string) ([]DoneLog, error) {
	var logs []DoneLog
	err := s.db.Select(&logs,
		`SELECT id, task_id, date, title, created_at FROM logs WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list done logs for %s: %w", taskID, err)
	}
	return logs, nil
}

// CountDoneLogsByDate counts completions per date in [from, to].
func (s *Store) CountDoneLogsByDate(from, to string) ([]DailyCount, error) {
	var out []DailyCount
	err := s.db.Select(&out, `
		SELECT date, COUNT(*) AS n
		FROM logs
		WHERE date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count done logs: %w", err)
	}
	return out, nil
}
