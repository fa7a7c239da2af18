package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/google/uuid"
)

// maxIDAttempts bounds regeneration when a candidate id is already live.
const maxIDAttempts = 16

type Options struct {
	NewID           IDGenerator
	DefaultCode     string
	DefaultLanguage string
}

// entry guards one session. deleted is set under mu once the entry has left the map,
// so a caller that looked the entry up just before deletion sees the room as gone.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
	deleted bool
}

// Registry is the in-memory owner of every live Session.
//
// Lock order: an entry's mu may be held while taking r.mu, never the other way round.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entry

	newID    IDGenerator
	code     string
	language string
}

func New(opts Options) *Registry {
	if opts.NewID == nil {
		opts.NewID = RandomIDs(DefaultIDLength)
	}
	if opts.DefaultCode == "" {
		opts.DefaultCode = domain.DefaultCode
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = domain.DefaultLanguage
	}
	return &Registry{
		rooms:    make(map[string]*entry),
		newID:    opts.NewID,
		code:     opts.DefaultCode,
		language: opts.DefaultLanguage,
	}
}

// Create allocates a fresh room id, regenerating on collision with a live room.
func (r *Registry) Create(now time.Time) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return domain.Session{}, fmt.Errorf("generate room id: %w", err)
		}
		if _, taken := r.rooms[id]; taken {
			continue
		}
		s := domain.NewSession(uuid.NewString(), id, r.code, r.language, now)
		r.rooms[id] = &entry{session: s}
		return s.Snapshot(), nil
	}

	return domain.Session{}, domain.ErrRoomIDExhausted
}

// Get returns a snapshot of the room's session.
func (r *Registry) Get(roomID string) (domain.Session, bool) {
	e := r.lookup(roomID)
	if e == nil {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Session{}, false
	}
	return e.session.Snapshot(), true
}

// Update runs fn inside the room's critical section. Everything fn does,
// mutation and fan-out alike, is atomic with respect to other operations on
// the same room.
func (r *Registry) Update(roomID string, fn func(s *domain.Session) error) error {
	e := r.lookup(roomID)
	if e == nil {
		return domain.ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.ErrRoomNotFound
	}
	return fn(e.session)
}

// Delete removes the room. Deleting a missing room is a no-op.
func (r *Registry) Delete(roomID string) (domain.Session, bool) {
	return r.DeleteWith(roomID, nil)
}

// DeleteWith runs fn on the session and removes the room in the same critical
// section, so no join can slip in between the two. The returned snapshot is
// taken before fn runs.
func (r *Registry) DeleteWith(roomID string, fn func(s *domain.Session)) (domain.Session, bool) {
	e := r.lookup(roomID)
	if e == nil {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Session{}, false
	}
	snap := e.session.Snapshot()
	if fn != nil {
		fn(e.session)
	}
	r.remove(roomID, e)
	return snap, true
}

// DeleteIfEmpty removes the room only if nobody is in it at the moment of the check.
func (r *Registry) DeleteIfEmpty(roomID string) (domain.Session, bool) {
	e := r.lookup(roomID)
	if e == nil {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted || !e.session.IsEmpty() {
		return domain.Session{}, false
	}
	r.remove(roomID, e)
	return e.session.Snapshot(), true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// IDs returns the live room ids in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) lookup(roomID string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// remove must be called with e.mu held.
func (r *Registry) remove(roomID string, e *entry) {
	e.deleted = true
	r.mu.Lock()
	if r.rooms[roomID] == e {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()
}
