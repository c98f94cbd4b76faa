package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type dayRow struct {
	Date      string `db:"date"`
	Tasks     string `db:"tasks"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r dayRow) record() (*DayRecord, error) {
	rec := &DayRecord{Date: r.Date, UpdatedAt: r.UpdatedAt}
	if err := json.Unmarshal([]byte(r.Tasks), &rec.Tasks); err != nil {
		return nil, fmt.Errorf("decode tasks for %s: %w", r.Date, err)
	}
	if rec.Tasks == nil {
		rec.Tasks = []Task{}
	}
	return rec, nil
}

// GetDay returns the record for date, or nil if none was ever saved.
func (s *Store) GetDay(date string) (*DayRecord, error) {
	var row dayRow
	err := s.db.Get(&row, `SELECT date, tasks, updated_at FROM days WHERE date = ?`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}
	return row.record()
}

// GetOrCreateDay returns the record for date or an empty stub. The stub is
// not persisted until PutDay.
func (s *Store) GetOrCreateDay(date string) (*DayRecord, error) {
	rec, err := s.GetDay(date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &DayRecord{Date: date, Tasks: []Task{}, UpdatedAt: s.nowMillis()}
	}
	return rec, nil
}

// PutDay stamps UpdatedAt and overwrites the whole record for rec.Date.
func (s *Store) PutDay(rec *DayRecord) error {
	return putDay(s.db, rec, s.nowMillis())
}

// LogChange is the completion-log side of a status change: Create inserts a
// log, RemoveTaskID deletes every log of that task.
type LogChange struct {
	Create       *DoneLog
	RemoveTaskID string
}

// PutDayWithLog saves rec and applies ch in one transaction. Removal runs
// before creation.
func (s *Store) PutDayWithLog(rec *DayRecord, ch LogChange) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := putDay(tx, rec, s.nowMillis()); err != nil {
		return err
	}
	if ch.RemoveTaskID != "" {
		if err := deleteDoneLogsForTask(tx, ch.RemoveTaskID); err != nil {
			return err
		}
	}
	if ch.Create != nil {
		if err := createDoneLog(tx, ch.Create); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putDay(db sqlx.Execer, rec *DayRecord, updatedAt int64) error {
	if rec.Date == "" {
		return errors.New("put day: empty date")
	}
	if rec.Tasks == nil {
		rec.Tasks = []Task{}
	}
	data, err := json.Marshal(rec.Tasks)
	if err != nil {
		return fmt.Errorf("encode tasks for %s: %w", rec.Date, err)
	}
	rec.UpdatedAt = updatedAt
	_, err = db.Exec(
		`INSERT INTO days (date, tasks, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET tasks = excluded.tasks, updated_at = excluded.updated_at`,
		rec.Date, string(data), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put day %s: %w", rec.Date, err)
	}
	return nil
}

// ListAllDays returns every stored record, oldest date first.
func (s *Store) ListAllDays() ([]DayRecord, error) {
	var rows []dayRow
	if err := s.db.Select(&rows, `SELECT date, tasks, updated_at FROM days ORDER BY date`); err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}

	days := make([]DayRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		days = append(days, *rec)
	}
	return days, nil
}

// ListDates returns the stored day keys, newest first.
func (s *Store) ListDates() ([]string, error) {
	var dates []string
	if err := s.db.Select(&dates, `SELECT date FROM days ORDER BY date DESC`); err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	return dates, nil
}

func (s *Store) DeleteDay(date string) error {
	if _, err := s.db.Exec(`DELETE FROM days WHERE date = ?`, date); err != nil {
		return fmt.Errorf("delete day %s: %w", date, err)
	}
	return nil
}
