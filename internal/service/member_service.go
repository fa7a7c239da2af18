package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/registry"
)

// MemberService tracks which connection sits in which room.
//
// Lock order: a room's critical section may take s.mu, never the reverse.
type MemberService struct {
	rooms   *registry.Registry
	sink    Sink
	reaper  Scheduler
	archive Archive
	now     clock

	mu     sync.Mutex
	byConn map[string]string
}

func NewMemberService(rooms *registry.Registry, sink Sink, reaper Scheduler, archive Archive) *MemberService {
	if reaper == nil {
		reaper = noopScheduler{}
	}
	if archive == nil {
		archive = noopArchive{}
	}
	return &MemberService{
		rooms:   rooms,
		sink:    sink,
		reaper:  reaper,
		archive: archive,
		now:     time.Now,
		byConn:  make(map[string]string),
	}
}

// Join puts connID into roomID. A connection that already sits in another room
// leaves it first. The joiner receives session-state before anyone sees user-joined.
//
// The switch is not atomic across both rooms: if roomID disappears after the old
// room was left, Join returns ErrRoomNotFound and the connection is in no room.
func (s *MemberService) Join(ctx context.Context, connID, roomID, displayName string) (domain.Session, error) {
	roomID = domain.NormalizeRoomID(roomID)

	if prev, ok := s.RoomOf(connID); ok && prev != roomID {
		if _, exists := s.rooms.Get(roomID); !exists {
			return domain.Session{}, domain.ErrRoomNotFound
		}
		if err := s.Leave(ctx, connID); err != nil {
			return domain.Session{}, err
		}
	}

	p := domain.Participant{
		ConnectionID: connID,
		DisplayName:  domain.NormalizeDisplayName(displayName),
		JoinedAt:     s.now(),
	}

	var snap domain.Session
	err := s.rooms.Update(roomID, func(sess *domain.Session) error {
		sess.AddParticipant(p)
		s.index(connID, roomID)

		s.sink.Deliver([]string{connID}, event.SessionState(sess))
		s.sink.Deliver(sess.ConnectionIDs(""), event.UserJoined(p, sess.Participants))
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	slog.Info("participant joined", "room", roomID, "conn", connID, "participants", len(snap.Participants))
	return snap, nil
}

// Leave removes connID from whatever room it is in. Unknown connections are ignored.
func (s *MemberService) Leave(ctx context.Context, connID string) error {
	roomID, ok := s.unindex(connID)
	if !ok {
		return nil
	}

	var remaining int
	err := s.rooms.Update(roomID, func(sess *domain.Session) error {
		p, removed := sess.RemoveParticipant(connID)
		if !removed {
			return domain.ErrNotInRoom
		}
		remaining = len(sess.Participants)
		s.sink.Deliver(sess.ConnectionIDs(""), event.UserLeft(p, sess.Participants))
		if sess.IsEmpty() {
			s.reaper.Schedule(roomID)
		}
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrNotInRoom):
		slog.Debug("leave on a gone room", "room", roomID, "conn", connID)
		return nil
	case err != nil:
		return err
	}

	slog.Info("participant left", "room", roomID, "conn", connID, "participants", remaining)
	return nil
}

// CloseRoom notifies every participant with room-closed and removes the room.
func (s *MemberService) CloseRoom(ctx context.Context, roomID string) error {
	roomID = domain.NormalizeRoomID(roomID)

	snap, ok := s.rooms.DeleteWith(roomID, func(sess *domain.Session) {
		ids := sess.ConnectionIDs("")
		s.sink.Deliver(ids, event.RoomClosed(roomID))

		s.mu.Lock()
		for _, id := range ids {
			if s.byConn[id] == roomID {
				delete(s.byConn, id)
			}
		}
		s.mu.Unlock()
		sess.Participants = nil
		s.reaper.Cancel(roomID)
	})
	if !ok {
		return domain.ErrRoomNotFound
	}

	s.archive.ArchiveSession(snap)
	slog.Info("room closed", "room", roomID, "participants", len(snap.Participants))
	return nil
}

func (s *MemberService) RoomOf(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byConn[connID]
	return id, ok
}

func (s *MemberService) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byConn)
}

func (s *MemberService) index(connID, roomID string) {
	s.mu.Lock()
	s.byConn[connID] = roomID
	s.mu.Unlock()
}

func (s *MemberService) unindex(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byConn[connID]
	if ok {
		delete(s.byConn, connID)
	}
	return id, ok
}
