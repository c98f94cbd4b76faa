// Package notify delivers reminder notifications and audio cues to the
// desktop.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/sadopc/sidedock/internal/store"
)

// Permission mirrors the three-state platform notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ErrLocked is returned by Bell.Play before the first user gesture.
var ErrLocked = errors.New("audio locked")

// Settings persists the permission decision.
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Desktop sends notifications through the OS notification service.
type Desktop struct {
	settings Settings
	allow    bool
	log      *slog.Logger
	send     func(title, message string, icon any) error
}

// NewDesktop returns a notifier whose first permission request resolves to
// granted when allow is true and denied otherwise.
func NewDesktop(settings Settings, allow bool, log *slog.Logger) *Desktop {
	return &Desktop{settings: settings, allow: allow, log: log, send: beeep.Notify}
}

func (d *Desktop) Permission() Permission {
	v, err := d.settings.GetSetting(store.SettingNotifyPermission)
	if err != nil {
		return PermissionDefault
	}
	switch p := Permission(v); p {
	case PermissionGranted, PermissionDenied:
		return p
	}
	return PermissionDefault
}

// RequestPermission settles an undetermined permission. A previous decision
// is returned unchanged.
func (d *Desktop) RequestPermission() Permission {
	if p := d.Permission(); p != PermissionDefault {
		return p
	}
	p := PermissionDenied
	if d.allow {
		p = PermissionGranted
	}
	if err := d.settings.SetSetting(store.SettingNotifyPermission, string(p)); err != nil {
		d.log.Warn("persist notification permission", "err", err)
	}
	return p
}

func (d *Desktop) Notify(title, body string) error {
	if err := d.send(title, body, ""); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Bell plays the terminal/system beep. It stays locked until Unlock is
// called from a user key press.
type Bell struct {
	mu       sync.Mutex
	unlocked bool
	beep     func(freq float64, duration int) error
}

func NewBell() *Bell {
	return &Bell{beep: beeep.Beep}
}

func (b *Bell) Unlock() {
	b.mu.Lock()
	b.unlocked = true
	b.mu.Unlock()
}

func (b *Bell) Unlocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unlocked
}

func (b *Bell) Play() error {
	if !b.Unlocked() {
		return ErrLocked
	}
	return b.beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
