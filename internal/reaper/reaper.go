package reaper

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

const DefaultGracePeriod = time.Hour

// Store is the part of the registry the reaper needs.
type Store interface {
	DeleteIfEmpty(roomID string) (domain.Session, bool)
}

// Hook observes a room that has just been reaped.
type Hook func(s domain.Session)

// Reaper deletes rooms that stay empty for a grace period. It keeps at most one
// pending check per room: scheduling a room again restarts its timer.
type Reaper struct {
	store Store
	after time.Duration
	hooks []Hook

	mu      sync.Mutex
	timers  map[string]*pending
	stopped bool
}

type pending struct {
	timer *time.Timer
}

func New(store Store, after time.Duration, hooks ...Hook) *Reaper {
	if after <= 0 {
		after = DefaultGracePeriod
	}
	return &Reaper{
		store:  store,
		after:  after,
		hooks:  hooks,
		timers: make(map[string]*pending),
	}
}

func (r *Reaper) GracePeriod() time.Duration { return r.after }

// OnReap registers an additional hook. Not safe to call once checks are running.
func (r *Reaper) OnReap(h Hook) {
	r.hooks = append(r.hooks, h)
}

// Schedule arms (or re-arms) the deferred emptiness check for roomID.
func (r *Reaper) Schedule(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	if p, ok := r.timers[roomID]; ok {
		p.timer.Stop()
	}
	p := &pending{}
	p.timer = time.AfterFunc(r.after, func() { r.fire(roomID, p) })
	r.timers[roomID] = p
	slog.Debug("reaper scheduled", "room", roomID, "after", r.after)
}

// Cancel drops the pending check for roomID, if any.
func (r *Reaper) Cancel(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.timers[roomID]; ok {
		p.timer.Stop()
		delete(r.timers, roomID)
	}
}

// Pending reports whether a check is armed for roomID.
func (r *Reaper) Pending(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[roomID]
	return ok
}

func (r *Reaper) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every pending check. Rooms are left in place.
func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.timers {
		p.timer.Stop()
		delete(r.timers, id)
	}
	r.stopped = true
	slog.Info("reaper stopped")
}

func (r *Reaper) fire(roomID string, p *pending) {
	r.mu.Lock()
	// a newer Schedule replaced this timer; that one owns the check now
	if r.timers[roomID] != p {
		r.mu.Unlock()
		return
	}
	delete(r.timers, roomID)
	r.mu.Unlock()

	s, deleted := r.store.DeleteIfEmpty(roomID)
	if !deleted {
		slog.Debug("reaper skipped room", "room", roomID)
		return
	}
	slog.Info("room reaped", "room", roomID, "age", time.Since(s.CreatedAt).Round(time.Second))
	for _, h := range r.hooks {
		h(s)
	}
}
