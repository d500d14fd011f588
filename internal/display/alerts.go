package display

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"glucosewatch/internal/alerting"
	"glucosewatch/internal/classify"
)

// Alerts forwards icon transitions to a notifier. The first known state is only
// announced when it is out of range or stale; repeats of an icon within the cooldown
// are suppressed.
type Alerts struct {
	notifier alerting.Notifier
	cooldown time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	prev    classify.IconKey
	hasPrev bool
	sent    map[classify.IconKey]time.Time
}

// NewAlerts constructs the alert sink.
func NewAlerts(notifier alerting.Notifier, cooldown time.Duration, now func() time.Time, logger zerolog.Logger) *Alerts {
	if now == nil {
		now = time.Now
	}
	return &Alerts{
		notifier: notifier,
		cooldown: cooldown,
		now:      now,
		logger:   logger.With().Str("component", "alerts").Logger(),
		sent:     make(map[classify.IconKey]time.Time),
	}
}

// Show implements Display.
func (a *Alerts) Show(ctx context.Context, frame Frame) error {
	if !frame.HasReading || a.notifier == nil {
		return nil
	}

	a.mu.Lock()
	prev, hasPrev := a.prev, a.hasPrev
	a.prev, a.hasPrev = frame.Icon, true
	if hasPrev && prev == frame.Icon {
		a.mu.Unlock()
		return nil
	}
	healthy := frame.Icon == (classify.IconKey{Range: classify.InRange})
	if !hasPrev && healthy {
		a.mu.Unlock()
		return nil
	}
	now := a.now()
	if last, ok := a.sent[frame.Icon]; ok && a.cooldown > 0 && now.Sub(last) < a.cooldown {
		a.mu.Unlock()
		a.logger.Debug().Str("icon", frame.Icon.String()).Msg("alert suppressed by cooldown")
		return nil
	}
	a.sent[frame.Icon] = now
	a.mu.Unlock()

	note := alerting.Notification{
		At:          now,
		Label:       frame.Label,
		LastUpdate:  frame.LastUpdate,
		State:       classify.State{Range: frame.Icon.Range, Stale: frame.Icon.Stale},
		Previous:    classify.State{Range: prev.Range, Stale: prev.Stale},
		HasPrevious: hasPrev,
	}
	if frame.FetchFailing {
		note.AdditionalMsg = "Source unreachable\n"
	}
	return a.notifier.Notify(ctx, note)
}
