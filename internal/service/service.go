package service

import (
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
)

// Sink delivers an outbound message to a set of connections. Implementations
// must not block: services call Deliver while holding a room's critical section.
type Sink interface {
	Deliver(connIDs []string, msg event.Message)
}

// Scheduler arms the deferred removal of an empty room.
type Scheduler interface {
	Schedule(roomID string)
	Cancel(roomID string)
}

// Archive receives chat messages and final room snapshots for persistence.
type Archive interface {
	ArchiveChat(m domain.ChatMessage)
	ArchiveSession(s domain.Session)
}

type noopArchive struct{}

func (noopArchive) ArchiveChat(domain.ChatMessage) {}
func (noopArchive) ArchiveSession(domain.Session)  {}

type noopScheduler struct{}

func (noopScheduler) Schedule(string) {}
func (noopScheduler) Cancel(string)   {}

type clock func() time.Time
