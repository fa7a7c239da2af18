package archive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
)

const (
	DefaultQueueSize    = 1024
	DefaultWriteTimeout = 5 * time.Second
)

var ErrClosed = errors.New("archiver closed")

type ChatStore interface {
	Save(ctx context.Context, m domain.ChatMessage) (domain.ChatMessage, error)
}

type SessionStore interface {
	SaveSnapshot(ctx context.Context, s domain.Session, closedAt time.Time) error
}

type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
	// OnDrop is called for every item refused because the queue is full or closed.
	OnDrop func()
}

type job struct {
	chat    *domain.ChatMessage
	session *domain.Session
	at      time.Time
}

// Archiver writes chat messages and room snapshots in the background. Callers
// never wait on the database: when the queue is full the item is dropped.
type Archiver struct {
	chats    ChatStore
	sessions SessionStore
	opts     Options
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// New starts the single writer goroutine. Stop it with Close.
func New(chats ChatStore, sessions SessionStore, opts Options) *Archiver {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	a := &Archiver{
		chats:    chats,
		sessions: sessions,
		opts:     opts,
		now:      time.Now,
		queue:    make(chan job, opts.QueueSize),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Archiver) ArchiveChat(m domain.ChatMessage) {
	a.enqueue(job{chat: &m})
}

func (a *Archiver) ArchiveSession(s domain.Session) {
	a.enqueue(job{session: &s, at: a.now()})
}

// Close stops accepting work and waits for the queue to drain or ctx to end.
func (a *Archiver) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Archiver) enqueue(j job) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(j, ErrClosed)
		return
	}
	select {
	case a.queue <- j:
	default:
		a.drop(j, errors.New("queue full"))
	}
}

func (a *Archiver) drop(j job, reason error) {
	if a.opts.OnDrop != nil {
		a.opts.OnDrop()
	}
	slog.Warn("archive item dropped", "kind", j.kind(), "err", reason)
}

func (a *Archiver) run() {
	defer close(a.done)
	for j := range a.queue {
		a.write(j)
	}
}

func (a *Archiver) write(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.WriteTimeout)
	defer cancel()

	var err error
	switch {
	case j.chat != nil && a.chats != nil:
		_, err = a.chats.Save(ctx, *j.chat)
	case j.session != nil && a.sessions != nil:
		err = a.sessions.SaveSnapshot(ctx, *j.session, j.at)
	}
	if err != nil {
		slog.Error("archive write failed", "kind", j.kind(), "err", err)
	}
}

func (j job) kind() string {
	if j.chat != nil {
		return "chat"
	}
	return "session"
}
