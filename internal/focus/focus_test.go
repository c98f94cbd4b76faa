package focus

import (
	"testing"
	"time"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

func newTestTimer(t *testing.T) (*Timer, *store.Store, *clock.Fake) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clk := clock.NewFake(start)
	ft := New(s, clk, nil)
	if err := ft.Load(); err != nil {
		t.Fatal(err)
	}
	return ft, s, clk
}

func sessions(t *testing.T, s *store.Store) []store.FocusSession {
	t.Helper()
	list, err := s.ListSessions("", "")
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestLoadDefaults(t *testing.T) {
	ft, _, _ := newTestTimer(t)
	st := ft.State()
	if st.Running || st.Mode != store.FocusStopwatch || st.PlannedSeconds != 25*60 {
		t.Fatalf("unexpected defaults: %+v", st)
	}
}

func TestLoadSeedsFromSettings(t *testing.T) {
	s, _ := store.NewMemory()
	defer s.Close()
	s.SetSetting(store.SettingFocusMode, "countdown")
	s.SetSetting(store.SettingFocusPlannedMinutes, "50")

	ft := New(s, clock.NewFake(start), nil)
	if err := ft.Load(); err != nil {
		t.Fatal(err)
	}
	st := ft.State()
	if st.Mode != store.FocusCountdown || st.PlannedSeconds != 3000 {
		t.Fatalf("state = %+v", st)
	}
}

func TestPauseAccumulates(t *testing.T) {
	ft, _, clk := newTestTimer(t)
	ft.Start()
	clk.Advance(5 * time.Second)
	ft.Start() // pause

	st := ft.State()
	if st.Running || st.StartedAt != nil {
		t.Fatal("pause should close the run segment")
	}
	if st.AccumulatedSeconds != 5 {
		t.Fatalf("accumulated = %d, want 5", st.AccumulatedSeconds)
	}

	clk.Advance(time.Minute)
	if ft.Elapsed() != 5 {
		t.Fatal("paused timer must not advance")
	}

	ft.Start()
	clk.Advance(3 * time.Second)
	if ft.Display() != 8 {
		t.Fatalf("display = %d, want 8", ft.Display())
	}
}

func TestPausesKeepSubSecondRemainders(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	for i := 0; i < 4; i++ {
		ft.Start()
		clk.Advance(1900 * time.Millisecond)
		ft.Start()
	}

	st := ft.State()
	if st.AccumulatedMillis != 7600 || st.AccumulatedSeconds != 7 {
		t.Fatalf("accumulated = %dms / %ds, want 7600ms / 7s", st.AccumulatedMillis, st.AccumulatedSeconds)
	}
	if ft.Elapsed() != 7 {
		t.Fatalf("elapsed = %d, want 7", ft.Elapsed())
	}

	fs, err := ft.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if fs == nil || fs.DurationSeconds != 7 {
		t.Fatalf("session = %+v, want 7s", fs)
	}
	if len(sessions(t, s)) != 1 {
		t.Fatal("session should be stored")
	}
}

func TestShortStopCreatesNoSession(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	ft.Start()
	clk.Advance(4 * time.Second)
	fs, err := ft.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if fs != nil || len(sessions(t, s)) != 0 {
		t.Fatal("runs under 5s must not be recorded")
	}
	if ft.Running() || ft.Elapsed() != 0 {
		t.Fatal("stop should zero the timer")
	}
}

func TestStopCreatesSession(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	task := "task-1"
	ft.SetActiveTask(&task)
	ft.Start()
	clk.Advance(10 * time.Second)

	fs, err := ft.Stop()
	if err != nil {
		t.Fatal(err)
	}
	list := sessions(t, s)
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
	got := list[0]
	if got.DurationSeconds != 10 || fs.ID != got.ID {
		t.Fatalf("session = %+v", got)
	}
	end := clock.Millis(start.Add(10 * time.Second))
	if got.EndedAt != end || got.StartedAt != end-10_000 {
		t.Fatalf("bounds = %d..%d", got.StartedAt, got.EndedAt)
	}
	if got.Date != "2026-03-10" || got.TaskID == nil || *got.TaskID != task {
		t.Fatalf("session metadata = %+v", got)
	}
}

func TestResetCreatesNoSession(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	ft.Start()
	clk.Advance(time.Minute)
	ft.Reset()
	if len(sessions(t, s)) != 0 {
		t.Fatal("reset must not record a session")
	}
	if ft.Running() || ft.Elapsed() != 0 {
		t.Fatal("reset should zero the timer")
	}
}

func TestCountdownAutoStops(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	ft.SetMode(store.FocusCountdown)
	ft.SetPlannedMinutes(1)
	ft.Start()

	clk.Advance(30 * time.Second)
	if fs, _ := ft.Tick(); fs != nil {
		t.Fatal("countdown stopped early")
	}
	if ft.Display() != 30 {
		t.Fatalf("remaining = %d, want 30", ft.Display())
	}

	clk.Advance(31 * time.Second)
	if ft.Display() != 0 {
		t.Fatal("display must not go negative")
	}
	fs, err := ft.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if fs == nil || fs.DurationSeconds != 60 || fs.PlannedMinutes != 1 {
		t.Fatalf("session = %+v", fs)
	}
	if ft.Running() {
		t.Fatal("countdown should be stopped")
	}
	if len(sessions(t, s)) != 1 {
		t.Fatal("expected exactly one session")
	}
}

func TestModeChangeRejectedWhileRunning(t *testing.T) {
	ft, _, _ := newTestTimer(t)
	ft.Start()
	if ok, _ := ft.SetMode(store.FocusCountdown); ok {
		t.Fatal("mode change should be rejected while running")
	}
	if ok, _ := ft.SetPlannedMinutes(10); ok {
		t.Fatal("planned change should be rejected while running")
	}
	if ft.State().Mode != store.FocusStopwatch {
		t.Fatal("mode changed")
	}
}

func TestLegacyStateWithoutMillis(t *testing.T) {
	s, _ := store.NewMemory()
	defer s.Close()
	s.SaveFocusState(&store.FocusState{Mode: store.FocusStopwatch, PlannedSeconds: 1500, AccumulatedSeconds: 9})

	ft := New(s, clock.NewFake(start), nil)
	if err := ft.Load(); err != nil {
		t.Fatal(err)
	}
	if ft.Elapsed() != 9 || ft.State().AccumulatedMillis != 9000 {
		t.Fatalf("state = %+v elapsed %d", ft.State(), ft.Elapsed())
	}
}

func TestStateSurvivesReload(t *testing.T) {
	ft, s, clk := newTestTimer(t)
	ft.Start()
	clk.Advance(7 * time.Second)

	reloaded := New(s, clk, nil)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if !reloaded.Running() || reloaded.Elapsed() != 7 {
		t.Fatalf("reloaded state = %+v elapsed %d", reloaded.State(), reloaded.Elapsed())
	}
}
