package service

import (
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/registry"
)

type delivery struct {
	to  string
	msg event.Message
}

// recordingSink keeps every delivery in order, one entry per recipient.
type recordingSink struct {
	mu  sync.Mutex
	log []delivery
}

func (r *recordingSink) Deliver(connIDs []string, msg event.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range connIDs {
		r.log = append(r.log, delivery{to: id, msg: msg})
	}
}

func (r *recordingSink) inbox(connID string) []event.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Message
	for _, d := range r.log {
		if d.to == connID {
			out = append(out, d.msg)
		}
	}
	return out
}

func (r *recordingSink) types(connID string) []string {
	var out []string
	for _, m := range r.inbox(connID) {
		out = append(out, m.Type)
	}
	return out
}

func (r *recordingSink) reset() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}

type fakeScheduler struct {
	mu        sync.Mutex
	rooms     []string
	cancelled []string
}

func (f *fakeScheduler) Schedule(roomID string) {
	f.mu.Lock()
	f.rooms = append(f.rooms, roomID)
	f.mu.Unlock()
}

func (f *fakeScheduler) Cancel(roomID string) {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, roomID)
	f.mu.Unlock()
}

func (f *fakeScheduler) scheduled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rooms...)
}

type fakeArchive struct {
	mu       sync.Mutex
	chats    []domain.ChatMessage
	sessions []domain.Session
}

func (f *fakeArchive) ArchiveChat(m domain.ChatMessage) {
	f.mu.Lock()
	f.chats = append(f.chats, m)
	f.mu.Unlock()
}

func (f *fakeArchive) ArchiveSession(s domain.Session) {
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	rooms     *registry.Registry
	sink      *recordingSink
	scheduler *fakeScheduler
	archive   *fakeArchive
	members   *MemberService
	broadcast *BroadcastService
}

func newFixture() *fixture {
	f := &fixture{
		rooms:     registry.New(registry.Options{}),
		sink:      &recordingSink{},
		scheduler: &fakeScheduler{},
		archive:   &fakeArchive{},
	}
	f.members = NewMemberService(f.rooms, f.sink, f.scheduler, f.archive)
	f.members.now = func() time.Time { return fixedNow }
	f.broadcast = NewBroadcastService(f.rooms, f.sink, f.archive, BroadcastConfig{})
	f.broadcast.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) room() string {
	s, err := f.rooms.Create(fixedNow)
	if err != nil {
		panic(err)
	}
	return s.RoomID
}
