package reminder

import (
	"testing"
	"time"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/notify"
	"github.com/sadopc/sidedock/internal/store"
	"github.com/sadopc/sidedock/internal/tasks"
)

const day = "2026-03-10"

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

type fakeNotifier struct {
	perm      notify.Permission
	grantOn   notify.Permission
	requests  int
	delivered []string
}

func (n *fakeNotifier) Permission() notify.Permission { return n.perm }

func (n *fakeNotifier) RequestPermission() notify.Permission {
	n.requests++
	if n.perm == notify.PermissionDefault {
		n.perm = n.grantOn
	}
	return n.perm
}

func (n *fakeNotifier) Notify(title, body string) error {
	n.delivered = append(n.delivered, body)
	return nil
}

type fakeAudio struct {
	unlocked bool
	plays    int
}

func (a *fakeAudio) Unlocked() bool { return a.unlocked }
func (a *fakeAudio) Play() error    { a.plays++; return nil }

type harness struct {
	store *store.Store
	tasks *tasks.Service
	clock *clock.Fake
	sched *Scheduler
	note  *fakeNotifier
	audio *fakeAudio
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clk := clock.NewFake(start)
	svc := tasks.New(s, clk)
	h := &harness{
		store: s,
		tasks: svc,
		clock: clk,
		note:  &fakeNotifier{perm: notify.PermissionDefault, grantOn: notify.PermissionGranted},
		audio: &fakeAudio{},
	}
	h.sched = New(s, svc, clk, WithNotifier(h.note), WithAudio(h.audio))
	svc.OnChange(func() {
		if err := h.sched.ScheduleNext(); err != nil {
			t.Errorf("schedule: %v", err)
		}
	})
	t.Cleanup(h.sched.Close)
	return h
}

// addReminder creates a task reminding at start+offset.
func (h *harness) addReminder(t *testing.T, title string, offset time.Duration) *store.Task {
	t.Helper()
	task, err := h.tasks.AddTask(day, title, nil, store.EstimateNone, nil)
	if err != nil {
		t.Fatal(err)
	}
	at := clock.Millis(start.Add(offset))
	task, err = h.tasks.SetReminder(day, task.ID, &at)
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func (h *harness) assertArmed(t *testing.T, want time.Time) {
	t.Helper()
	if n := h.clock.Pending(); n != 1 {
		t.Fatalf("armed timers = %d, want 1", n)
	}
	got, _ := h.clock.NextDeadline()
	if !got.Equal(want) {
		t.Fatalf("timer deadline = %v, want %v", got, want)
	}
}

func TestArmsNearestReminder(t *testing.T) {
	h := newHarness(t)
	a := h.addReminder(t, "a", 10*time.Second)
	h.addReminder(t, "b", 30*time.Second)

	if err := h.sched.ScheduleNext(); err != nil {
		t.Fatal(err)
	}
	h.assertArmed(t, start.Add(10*time.Second))

	h.clock.Advance(10 * time.Second)
	p, ok := h.sched.Pending()
	if !ok || p.TaskID != a.ID {
		t.Fatalf("expected pending reminder for a, got %+v", p)
	}
	if !h.sched.Blinking() {
		t.Fatal("title should blink while a reminder is pending")
	}

	if err := h.sched.Dismiss(); err != nil {
		t.Fatal(err)
	}
	h.assertArmed(t, start.Add(30*time.Second))
	if _, ok := h.sched.Pending(); ok {
		t.Fatal("dismiss should clear the banner")
	}
}

func TestSnoozeOverridesRemindAt(t *testing.T) {
	h := newHarness(t)
	remind := clock.Millis(start)
	snoozed := clock.Millis(start.Add(300 * time.Second))
	h.store.PutDay(&store.DayRecord{Date: day, Tasks: []store.Task{{
		ID:                 "a",
		Title:              "a",
		Status:             store.StatusInProgress,
		RemindAt:           &remind,
		RemindSnoozedUntil: &snoozed,
	}}})

	if err := h.sched.ScheduleNext(); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.sched.Pending(); ok {
		t.Fatal("an active snooze must hold back the base reminder")
	}
	h.assertArmed(t, start.Add(300*time.Second))
	if h.sched.ArmedAt() != snoozed {
		t.Fatal("armed for the wrong instant")
	}
}

func TestOverdueTriggersWithoutTimer(t *testing.T) {
	h := newHarness(t)
	task := h.addReminder(t, "late", -time.Minute)

	p, ok := h.sched.Pending()
	if !ok || p.TaskID != task.ID {
		t.Fatal("overdue reminder should trigger immediately")
	}
	if h.clock.Pending() != 0 {
		t.Fatal("no timer should be armed after an immediate trigger")
	}
	ev := <-h.sched.Events()
	if ev.Kind != Triggered || ev.Pending.Title != "late" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestOpenDoesNotRetrigger(t *testing.T) {
	h := newHarness(t)
	task := h.addReminder(t, "a", -time.Minute)

	p, ok := h.sched.Open()
	if !ok || p.TaskID != task.ID {
		t.Fatal("open should return the pending task")
	}
	h.sched.ScheduleNext()
	if _, ok := h.sched.Pending(); ok {
		t.Fatal("an opened reminder must not fire again")
	}
	date, got, _ := h.tasks.FindTask(task.ID)
	if date != day || got.RemindAt == nil {
		t.Fatal("open must leave remindAt untouched")
	}
}

func TestDoneCompletesTask(t *testing.T) {
	h := newHarness(t)
	task := h.addReminder(t, "a", -time.Minute)

	if err := h.sched.Done(); err != nil {
		t.Fatal(err)
	}
	_, got, _ := h.tasks.FindTask(task.ID)
	if got.Status != store.StatusDone || got.RemindAt != nil {
		t.Fatalf("task after done = %+v", got)
	}
	logs, _ := h.store.ListDoneLogsForTask(task.ID)
	if len(logs) != 1 {
		t.Fatal("done should write a completion log")
	}
}

func TestSnoozeRefiresLater(t *testing.T) {
	h := newHarness(t)
	task := h.addReminder(t, "a", -time.Minute)

	if err := h.sched.Snooze(5); err != nil {
		t.Fatal(err)
	}
	h.assertArmed(t, start.Add(5*time.Minute))

	h.clock.Advance(5 * time.Minute)
	p, ok := h.sched.Pending()
	if !ok || p.TaskID != task.ID {
		t.Fatal("snoozed reminder should fire again")
	}
}

func TestSnoozeUsesSetting(t *testing.T) {
	h := newHarness(t)
	h.store.SetSetting(store.SettingSnoozeMinutes, "15")
	h.addReminder(t, "a", -time.Minute)

	h.sched.Snooze(0)
	h.assertArmed(t, start.Add(15*time.Minute))
}

func TestOnlyOnePendingAtATime(t *testing.T) {
	h := newHarness(t)
	a := h.addReminder(t, "a", -2*time.Minute)
	b := h.addReminder(t, "b", -time.Minute)

	p, _ := h.sched.Pending()
	if p.TaskID != a.ID {
		t.Fatalf("pending = %s, want a", p.TaskID)
	}
	h.sched.Dismiss()
	p, ok := h.sched.Pending()
	if !ok || p.TaskID != b.ID {
		t.Fatal("b should trigger once a is resolved")
	}
}

func TestDoneTasksIgnored(t *testing.T) {
	h := newHarness(t)
	task := h.addReminder(t, "a", time.Minute)
	h.tasks.SetStatus(day, task.ID, store.StatusDone)

	if h.clock.Pending() != 0 {
		t.Fatal("DONE tasks must not be scheduled")
	}
}

func TestDelayClamped(t *testing.T) {
	h := newHarness(t)
	h.addReminder(t, "far", 60*24*time.Hour)
	h.assertArmed(t, start.Add(MaxDelay))

	// Firing the clamped timer re-arms for the remainder.
	h.clock.Advance(MaxDelay)
	if _, ok := h.sched.Pending(); ok {
		t.Fatal("clamped timer must not trigger early")
	}
	h.assertArmed(t, start.Add(60*24*time.Hour))
}

func TestNotificationPermission(t *testing.T) {
	h := newHarness(t)
	h.addReminder(t, "a", -time.Minute)
	if h.note.requests != 1 || len(h.note.delivered) != 1 {
		t.Fatalf("requests=%d delivered=%d", h.note.requests, len(h.note.delivered))
	}

	h.sched.Dismiss()
	h.addReminder(t, "b", -time.Minute)
	if h.note.requests != 1 {
		t.Fatal("permission should only be requested while undetermined")
	}
	if len(h.note.delivered) != 2 {
		t.Fatal("granted permission should deliver")
	}
}

func TestNotificationDenied(t *testing.T) {
	h := newHarness(t)
	h.note.perm = notify.PermissionDenied
	h.addReminder(t, "a", -time.Minute)
	if h.note.requests != 0 || len(h.note.delivered) != 0 {
		t.Fatal("denied permission must never request or deliver")
	}
}

func TestAudioNeedsUnlockAndSetting(t *testing.T) {
	h := newHarness(t)
	h.store.SetSetting(store.SettingSoundEnabled, "true")
	h.addReminder(t, "a", -time.Minute)
	if h.audio.plays != 0 {
		t.Fatal("locked audio must not play")
	}

	h.sched.Dismiss()
	h.audio.unlocked = true
	h.addReminder(t, "b", -time.Minute)
	if h.audio.plays != 1 {
		t.Fatalf("plays = %d, want 1", h.audio.plays)
	}

	h.sched.Dismiss()
	h.store.SetSetting(store.SettingSoundEnabled, "false")
	h.addReminder(t, "c", -time.Minute)
	if h.audio.plays != 1 {
		t.Fatal("sound disabled must not play")
	}
}
