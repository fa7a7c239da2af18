package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/registry"
	"github.com/cwrk-planet/coderoom/internal/security"
)

var ErrNotHost = errors.New("not the room host")

// CreatedRoom is what the creator of a room gets back.
type CreatedRoom struct {
	RoomID    string
	SessionID string
	ShareLink string
	HostToken string
	// HostTokenExpiresAt is when HostToken stops authorizing host actions.
	HostTokenExpiresAt time.Time
	CreatedAt          time.Time
}

type RoomService struct {
	rooms     *registry.Registry
	tokens    *security.TokenIssuer
	reaper    Scheduler
	shareBase string
	languages domain.LanguageSet
	now       clock
}

// NewRoomService builds the room lifecycle service. reaper may be nil, in which
// case rooms that are never joined stay until closed.
func NewRoomService(rooms *registry.Registry, tokens *security.TokenIssuer, reaper Scheduler, shareBaseURL string, languages domain.LanguageSet) *RoomService {
	if reaper == nil {
		reaper = noopScheduler{}
	}
	return &RoomService{
		rooms:     rooms,
		tokens:    tokens,
		reaper:    reaper,
		shareBase: strings.TrimRight(shareBaseURL, "/"),
		languages: languages,
		now:       time.Now,
	}
}

// CreateRoom opens an empty room and issues the host token for it. The room is
// handed to the reaper right away so one nobody joins does not live forever.
func (s *RoomService) CreateRoom(ctx context.Context) (CreatedRoom, error) {
	if err := ctx.Err(); err != nil {
		return CreatedRoom{}, err
	}
	now := s.now()
	sess, err := s.rooms.Create(now)
	if err != nil {
		return CreatedRoom{}, fmt.Errorf("registry.Create: %w", err)
	}

	token, err := s.tokens.Sign(sess.ID, sess.RoomID, now)
	if err != nil {
		s.rooms.Delete(sess.RoomID)
		return CreatedRoom{}, fmt.Errorf("sign host token: %w", err)
	}
	s.reaper.Schedule(sess.RoomID)

	return CreatedRoom{
		RoomID:             sess.RoomID,
		SessionID:          sess.ID,
		ShareLink:          s.ShareLink(sess.RoomID),
		HostToken:          token,
		HostTokenExpiresAt: now.Add(s.tokens.TTL()),
		CreatedAt:          sess.CreatedAt,
	}, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	sess, ok := s.rooms.Get(domain.NormalizeRoomID(roomID))
	if !ok {
		return domain.Session{}, domain.ErrRoomNotFound
	}
	return sess, nil
}

// AuthorizeHost checks that token was issued for this room's current session.
func (s *RoomService) AuthorizeHost(ctx context.Context, roomID, token string) error {
	sess, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	claims, err := s.tokens.Verify(token, sess.RoomID)
	if err != nil {
		return err
	}
	if claims.Subject != sess.ID {
		return ErrNotHost
	}
	return nil
}

func (s *RoomService) ShareLink(roomID string) string {
	return s.shareBase + "/interview/" + roomID
}

// Languages lists what a room may switch to, in configuration order.
func (s *RoomService) Languages() []string {
	return s.languages.List()
}
