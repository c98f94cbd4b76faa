package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetMeta decodes the JSON value stored under key into v. It reports
// whether the key was present.
func (s *Store) GetMeta(key string, v any) (bool, error) {
	var raw string
	err := s.db.Get(&raw, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get meta %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode meta %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetMeta(key string, v any) error {
	return setMeta(s.db, key, v)
}

func setMeta(db sqlx.Execer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode meta %q: %w", key, err)
	}
	_, err = db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// LastOpenedDate returns the recorded day key, or "" when never set.
func (s *Store) LastOpenedDate() (string, error) {
	var date string
	if _, err := s.GetMeta(MetaLastOpenedDate, &date); err != nil {
		return "", err
	}
	return date, nil
}

func (s *Store) SetLastOpenedDate(date string) error {
	return s.SetMeta(MetaLastOpenedDate, date)
}

// GetFocusState returns the persisted focus state, or nil if none.
func (s *Store) GetFocusState() (*FocusState, error) {
	var st FocusState
	ok, err := s.GetMeta(MetaFocusState, &st)
	if err != nil || !ok {
		return nil, err
	}
	return &st, nil
}

func (s *Store) SaveFocusState(st *FocusState) error {
	return s.SetMeta(MetaFocusState, st)
}
