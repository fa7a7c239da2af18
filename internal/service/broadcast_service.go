package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/registry"
)

const (
	DefaultMaxOutputBytes = 10000
	DefaultMaxChatLength  = 4000
)

type BroadcastConfig struct {
	Languages      domain.LanguageSet
	MaxOutputBytes int
	MaxChatLength  int
}

// BroadcastService applies editing events to a room and fans them out.
// Every delivery happens inside the room's critical section, so all members
// see one room's events in the order the server received them.
type BroadcastService struct {
	rooms   *registry.Registry
	sink    Sink
	archive Archive
	cfg     BroadcastConfig
	now     clock
}

func NewBroadcastService(rooms *registry.Registry, sink Sink, archive Archive, cfg BroadcastConfig) *BroadcastService {
	if archive == nil {
		archive = noopArchive{}
	}
	if cfg.Languages.Len() == 0 {
		cfg.Languages = domain.NewLanguageSet(domain.DefaultLanguages...)
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if cfg.MaxChatLength <= 0 {
		cfg.MaxChatLength = DefaultMaxChatLength
	}
	return &BroadcastService{
		rooms:   rooms,
		sink:    sink,
		archive: archive,
		cfg:     cfg,
		now:     time.Now,
	}
}

// UpdateCode replaces the room's code and forwards it to everyone but the sender.
func (s *BroadcastService) UpdateCode(ctx context.Context, roomID, senderID, code string, cursor json.RawMessage) error {
	return s.rooms.Update(roomID, func(sess *domain.Session) error {
		sess.Code = code
		s.sink.Deliver(sess.ConnectionIDs(senderID), event.CodeUpdated(code, senderID, cursor))
		return nil
	})
}

// ChangeLanguage switches the room's language and tells every participant, sender included.
func (s *BroadcastService) ChangeLanguage(ctx context.Context, roomID, senderID, language string) error {
	language = strings.ToLower(strings.TrimSpace(language))
	if !s.cfg.Languages.Contains(language) {
		return domain.ErrUnsupportedLanguage
	}
	return s.rooms.Update(roomID, func(sess *domain.Session) error {
		sess.Language = language
		s.sink.Deliver(sess.ConnectionIDs(""), event.LanguageChanged(language))
		return nil
	})
}

// RelayExecutionResult forwards a client-side run to the whole room. Room state is untouched.
func (s *BroadcastService) RelayExecutionResult(ctx context.Context, roomID, senderID string, res domain.ExecutionResult) error {
	res.Output = truncateBytes(res.Output, s.cfg.MaxOutputBytes)
	res.Timestamp = s.now()
	return s.rooms.Update(roomID, func(sess *domain.Session) error {
		if strings.TrimSpace(res.ExecutedBy) == "" {
			res.ExecutedBy = nameOf(sess, senderID)
		}
		s.sink.Deliver(sess.ConnectionIDs(""), event.Executed(senderID, res))
		return nil
	})
}

// RelayChatMessage stamps a chat line and sends it to the whole room, then hands it to the archive.
func (s *BroadcastService) RelayChatMessage(ctx context.Context, roomID, senderID, text, displayName string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxChatLength {
		return domain.ChatMessage{}, domain.ErrMessageTooLong
	}

	msg := domain.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Text:     text,
		SentAt:   s.now(),
	}
	err := s.rooms.Update(roomID, func(sess *domain.Session) error {
		if strings.TrimSpace(displayName) == "" {
			msg.DisplayName = nameOf(sess, senderID)
		} else {
			msg.DisplayName = domain.NormalizeDisplayName(displayName)
		}
		s.sink.Deliver(sess.ConnectionIDs(""), event.Chat(msg))
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}

	s.archive.ArchiveChat(msg)
	return msg, nil
}

func nameOf(sess *domain.Session, connID string) string {
	for _, p := range sess.Participants {
		if p.ConnectionID == connID {
			return p.DisplayName
		}
	}
	return domain.AnonymousName
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
