package store

import (
	"testing"
	"time"

	"github.com/sadopc/sidedock/internal/clock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.Get(&version, "PRAGMA user_version")
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := t.TempDir() + "/sub/sidedock.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutDay(&DayRecord{Date: "2026-01-01"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migration is not re-run destructively.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	rec, err := s2.GetDay("2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("day should survive reopen")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Days
// ============================================================

func TestGetDayMissing(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.GetDay("2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestGetOrCreateDayDoesNotPersist(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.GetOrCreateDay("2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Date != "2026-01-01" || len(rec.Tasks) != 0 {
		t.Fatalf("unexpected stub: %+v", rec)
	}

	days, _ := s.ListAllDays()
	if len(days) != 0 {
		t.Fatalf("stub should not be persisted, found %d days", len(days))
	}
}

func TestPutDayRoundTrip(t *testing.T) {
	s := newTestStore(t)
	rec := &DayRecord{
		Date: "2026-01-02",
		Tasks: []Task{{
			ID:              "a",
			Title:           "write report",
			Status:          StatusWaiting,
			Priority:        PriorityHigh,
			EstimateMinutes: Estimate30,
			Tags:            []string{"work"},
			Order:           4,
			CarriedFrom:     ptr("2026-01-01"),
			RemindAt:        ptr(int64(1000)),
			Subtasks:        []Subtask{{ID: "s1", Text: "outline", Order: 0}},
		}},
	}
	before := time.Now().UnixMilli()
	if err := s.PutDay(rec); err != nil {
		t.Fatal(err)
	}
	if rec.UpdatedAt < before {
		t.Fatal("PutDay should stamp UpdatedAt")
	}

	got, err := s.GetDay("2026-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(got.Tasks))
	}
	task := got.Tasks[0]
	if task.Status != StatusWaiting || task.Priority != PriorityHigh || task.EstimateMinutes != Estimate30 {
		t.Fatalf("fields not preserved: %+v", task)
	}
	if task.CarriedFrom == nil || *task.CarriedFrom != "2026-01-01" {
		t.Fatal("carriedFrom not preserved")
	}
	if task.RemindAt == nil || *task.RemindAt != 1000 {
		t.Fatal("remindAt not preserved")
	}
	if len(task.Subtasks) != 1 || task.Subtasks[0].Text != "outline" {
		t.Fatal("subtasks not preserved")
	}
}

func TestPutDayUsesInjectedClock(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2031, 5, 6, 7, 8, 9, 0, time.UTC)
	s.SetClock(clock.NewFake(at))

	stub, _ := s.GetOrCreateDay("2031-05-06")
	if stub.UpdatedAt != at.UnixMilli() {
		t.Fatalf("stub UpdatedAt = %d, want %d", stub.UpdatedAt, at.UnixMilli())
	}
	if err := s.PutDay(stub); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetDay("2031-05-06")
	if got.UpdatedAt != at.UnixMilli() {
		t.Fatalf("stored UpdatedAt = %d, want %d", got.UpdatedAt, at.UnixMilli())
	}
}

func TestPutDayOverwritesWholeRecord(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2026-01-02", Tasks: []Task{{ID: "a"}, {ID: "b"}}})
	s.PutDay(&DayRecord{Date: "2026-01-02", Tasks: []Task{{ID: "c"}}})

	got, _ := s.GetDay("2026-01-02")
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "c" {
		t.Fatalf("expected record to be replaced, got %+v", got.Tasks)
	}
}

func TestListAllDaysAndDelete(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2026-01-03"})
	s.PutDay(&DayRecord{Date: "2026-01-01"})
	s.PutDay(&DayRecord{Date: "2026-01-02"})

	days, err := s.ListAllDays()
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 || days[0].Date != "2026-01-01" || days[2].Date != "2026-01-03" {
		t.Fatalf("expected ascending dates, got %+v", days)
	}

	if err := s.DeleteDay("2026-01-02"); err != nil {
		t.Fatal(err)
	}
	dates, _ := s.ListDates()
	if len(dates) != 2 || dates[0] != "2026-01-03" || dates[1] != "2026-01-01" {
		t.Fatalf("unexpected dates after delete: %v", dates)
	}
}

func TestEstimateNullJSON(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2026-01-02", Tasks: []Task{{ID: "a"}}})

	var raw string
	s.db.Get(&raw, `SELECT tasks FROM days WHERE date = ?`, "2026-01-02")
	if !contains(raw, `"estimateMinutes":null`) {
		t.Fatalf("expected null estimate in %s", raw)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// ============================================================
// Meta
// ============================================================

func TestMetaRoundTrip(t *testing.T) {
	s := newTestStore(t)

	date, err := s.LastOpenedDate()
	if err != nil {
		t.Fatal(err)
	}
	if date != "" {
		t.Fatalf("expected empty lastOpenedDate, got %q", date)
	}

	s.SetLastOpenedDate("2026-01-05")
	date, _ = s.LastOpenedDate()
	if date != "2026-01-05" {
		t.Fatalf("lastOpenedDate = %q", date)
	}
}

func TestFocusStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	st, err := s.GetFocusState()
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Fatal("expected no focus state yet")
	}

	want := &FocusState{Running: true, Mode: FocusCountdown, PlannedSeconds: 1500, StartedAt: ptr(int64(42)), AccumulatedSeconds: 7}
	if err := s.SaveFocusState(want); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetFocusState()
	if !got.Running || got.Mode != FocusCountdown || got.PlannedSeconds != 1500 || *got.StartedAt != 42 || got.AccumulatedSeconds != 7 {
		t.Fatalf("unexpected focus state: %+v", got)
	}
}

// ============================================================
// Sessions & logs
// ============================================================

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession(&FocusSession{ID: "1", Date: "2026-01-01", Mode: FocusStopwatch, StartedAt: 1, EndedAt: 11, DurationSeconds: 10})
	s.CreateSession(&FocusSession{ID: "2", Date: "2026-01-02", TaskID: ptr("t"), Mode: FocusCountdown, PlannedMinutes: 25, StartedAt: 20, EndedAt: 80, DurationSeconds: 60})
	s.CreateSession(&FocusSession{ID: "3", Date: "2026-01-02", Mode: FocusStopwatch, StartedAt: 90, EndedAt: 95, DurationSeconds: 5})

	all, err := s.ListSessions("", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[1].TaskID == nil || *all[1].TaskID != "t" {
		t.Fatal("task id not preserved")
	}

	day2, _ := s.ListSessions("2026-01-02", "2026-01-02")
	if len(day2) != 2 {
		t.Fatalf("expected 2 sessions on day 2, got %d", len(day2))
	}

	sums, err := s.FocusSecondsByDate("2026-01-01", "2026-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 || sums[1].Count != 65 {
		t.Fatalf("unexpected sums: %+v", sums)
	}
}

func TestDoneLogs(t *testing.T) {
	s := newTestStore(t)
	s.CreateDoneLog(&DoneLog{ID: "l1", TaskID: "a", Date: "2026-01-01", Title: "A", CreatedAt: 1})
	s.CreateDoneLog(&DoneLog{ID: "l2", TaskID: "b", Date: "2026-01-01", Title: "B", CreatedAt: 2})

	logs, _ := s.ListDoneLogs("2026-01-01")
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}

	if err := s.DeleteDoneLogsForTask("a"); err != nil {
		t.Fatal(err)
	}
	logs, _ = s.ListDoneLogsForTask("a")
	if len(logs) != 0 {
		t.Fatal("logs for a should be gone")
	}

	counts, _ := s.CountDoneLogsByDate("2026-01-01", "2026-01-01")
	if len(counts) != 1 || counts[0].Count != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestPutDayWithLog(t *testing.T) {
	s := newTestStore(t)
	rec := &DayRecord{Date: "2026-01-01", Tasks: []Task{{ID: "a", Status: StatusDone}}}
	err := s.PutDayWithLog(rec, LogChange{Create: &DoneLog{ID: "l1", TaskID: "a", Date: "2026-01-01", CreatedAt: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if logs, _ := s.ListDoneLogsForTask("a"); len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}

	rec.Tasks[0].Status = StatusInProgress
	if err := s.PutDayWithLog(rec, LogChange{RemoveTaskID: "a"}); err != nil {
		t.Fatal(err)
	}
	if logs, _ := s.ListDoneLogsForTask("a"); len(logs) != 0 {
		t.Fatal("log should be removed")
	}
}

func TestPutDayWithLogRollsBack(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2026-01-01", Tasks: []Task{{ID: "a", Status: StatusInProgress}}})
	s.CreateDoneLog(&DoneLog{ID: "taken", TaskID: "b", Date: "2026-01-01", CreatedAt: 1})

	rec := &DayRecord{Date: "2026-01-01", Tasks: []Task{{ID: "a", Status: StatusDone}}}
	err := s.PutDayWithLog(rec, LogChange{Create: &DoneLog{ID: "taken", TaskID: "a", Date: "2026-01-01", CreatedAt: 2}})
	if err == nil {
		t.Fatal("expected duplicate log id to fail")
	}

	got, _ := s.GetDay("2026-01-01")
	if got.Tasks[0].Status != StatusInProgress {
		t.Fatalf("day should be rolled back, status = %s", got.Tasks[0].Status)
	}
	if logs, _ := s.ListDoneLogsForTask("a"); len(logs) != 0 {
		t.Fatal("no log should be written for a")
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettings(t *testing.T) {
	s := newTestStore(t)
	if s.BoolSetting(SettingSoundEnabled, true) {
		t.Fatal("sound should default to disabled")
	}
	if got := s.IntSetting(SettingSnoozeMinutes, 0); got != 10 {
		t.Fatalf("snooze_minutes = %d, want 10", got)
	}
	v, _ := s.GetSetting(SettingNotifyPermission)
	if v != "default" {
		t.Fatalf("notify_permission = %q", v)
	}
}

func TestSetSettingUpsert(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("custom", "1")
	s.SetSetting("custom", "2")
	v, _ := s.GetSetting("custom")
	if v != "2" {
		t.Fatalf("custom = %q, want 2", v)
	}
	all, _ := s.GetAllSettings()
	if len(all) < 6 {
		t.Fatalf("expected seeded settings plus custom, got %d", len(all))
	}
	if got := s.IntSetting("missing", 9); got != 9 {
		t.Fatalf("missing setting should return fallback, got %d", got)
	}
}

// ============================================================
// Clear / replace
// ============================================================

func TestClearAllKeepsSettings(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2026-01-01"})
	s.SetLastOpenedDate("2026-01-01")
	s.CreateDoneLog(&DoneLog{ID: "l", TaskID: "a", Date: "2026-01-01", CreatedAt: 1})
	s.SetSetting(SettingSoundEnabled, "true")

	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	days, _ := s.ListAllDays()
	if len(days) != 0 {
		t.Fatal("days should be cleared")
	}
	date, _ := s.LastOpenedDate()
	if date != "" {
		t.Fatal("meta should be cleared")
	}
	if !s.BoolSetting(SettingSoundEnabled, false) {
		t.Fatal("settings should survive ClearAll")
	}
}

func TestReplaceAllPreservesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	s.PutDay(&DayRecord{Date: "2025-12-31"})

	days := []DayRecord{{Date: "2026-01-01", UpdatedAt: 123, Tasks: []Task{{ID: "x", Status: StatusDone}}}}
	if err := s.ReplaceAll(days, map[string]any{MetaLastOpenedDate: "2026-01-01"}); err != nil {
		t.Fatal(err)
	}

	all, _ := s.ListAllDays()
	if len(all) != 1 || all[0].Date != "2026-01-01" || all[0].UpdatedAt != 123 {
		t.Fatalf("unexpected days after replace: %+v", all)
	}
	date, _ := s.LastOpenedDate()
	if date != "2026-01-01" {
		t.Fatalf("lastOpenedDate = %q", date)
	}
}
