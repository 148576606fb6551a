package cooldown

import (
	"sync"
	"time"
)

// Provider identifies one upstream image-generation API.
type Provider string

const (
	ProviderFaceEnhance Provider = "face-enhance"
	ProviderBodyRegen   Provider = "body-regen"
)

// DefaultWindow applies to providers registered without an explicit window.
const DefaultWindow = 30 * time.Minute

// Stats is a snapshot of one provider's counters for logging purposes.
type Stats struct {
	Calls         int64
	Failures      int64
	CooldownUntil time.Time
}

type state struct {
	window        time.Duration
	calls         int64
	failures      int64
	cooldownUntil time.Time
}

// Tracker gates calls to upstream providers after they signal rate limiting.
// Counters are observability only; the cooldown timestamp is the gate. All
// methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[Provider]time.Duration
	states  map[Provider]*state
}

// NewTracker builds a tracker with the given per-provider cooldown windows.
func NewTracker(windows map[Provider]time.Duration) *Tracker {
	cloned := make(map[Provider]time.Duration, len(windows))
	for p, w := range windows {
		cloned[p] = w
	}
	return &Tracker{
		now:     time.Now,
		windows: cloned,
		states:  make(map[Provider]*state),
	}
}

func (t *Tracker) stateFor(p Provider) *state {
	s, ok := t.states[p]
	if !ok {
		window, ok := t.windows[p]
		if !ok || window <= 0 {
			window = DefaultWindow
		}
		s = &state{window: window}
		t.states[p] = s
	}
	return s
}

// OnCooldown reports whether the provider must not be called right now and,
// if so, how long the cooldown has left.
func (t *Tracker) OnCooldown(p Provider) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(p)
	now := t.now()
	if now.Before(s.cooldownUntil) {
		return true, s.cooldownUntil.Sub(now)
	}
	return false, 0
}

// RecordRateLimit starts the provider's cooldown window from now.
func (t *Tracker) RecordRateLimit(p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(p)
	s.cooldownUntil = t.now().Add(s.window)
}

// RecordSuccess counts one completed call that produced a usable result.
func (t *Tracker) RecordSuccess(p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(p)
	s.calls++
}

// RecordFailure counts one completed call that produced no usable result.
func (t *Tracker) RecordFailure(p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(p)
	s.calls++
	s.failures++
}

// Stats returns a copy of the provider's counters.
func (t *Tracker) Stats(p Provider) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(p)
	return Stats{Calls: s.calls, Failures: s.failures, CooldownUntil: s.cooldownUntil}
}
