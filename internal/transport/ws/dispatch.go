package ws

import (
	"context"
	"errors"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/logger"
)

func (s *Server) dispatch(ctx context.Context, c *conn, data []byte) {
	in, err := event.Decode(data)
	if err != nil {
		s.metrics.EventDropped("bad_request")
		logger.FromContext(ctx).Debug("ws bad frame", "err", err)
		s.reply(c, event.Error(event.CodeBadRequest, err.Error()))
		return
	}
	s.metrics.EventReceived(in.Type())

	switch ev := in.(type) {
	case event.JoinRoom:
		if _, err := s.presence.Join(ctx, c.id, ev.RoomID, ev.DisplayName); err != nil {
			if errors.Is(err, domain.ErrRoomNotFound) {
				s.metrics.EventDropped("room_not_found")
				s.reply(c, event.Error(event.CodeRoomNotFound, "room "+ev.RoomID+" does not exist"))
				return
			}
			logger.FromContext(ctx).Error("ws join failed", "room", ev.RoomID, "err", err)
		}
	case event.LeaveRoom:
		if err := s.presence.Leave(ctx, c.id); err != nil {
			logger.FromContext(ctx).Error("ws leave failed", "err", err)
		}
	case event.CodeUpdate:
		s.dropped(ctx, ev, s.router.UpdateCode(ctx, ev.RoomID, c.id, ev.Code, ev.Cursor))
	case event.LanguageChange:
		s.dropped(ctx, ev, s.router.ChangeLanguage(ctx, ev.RoomID, c.id, ev.Language))
	case event.CodeExecuted:
		s.dropped(ctx, ev, s.router.RelayExecutionResult(ctx, ev.RoomID, c.id, domain.ExecutionResult{
			Output:     ev.Output,
			Error:      ev.Error,
			Language:   ev.Language,
			ExecutedBy: ev.ExecutedBy,
		}))
	case event.ChatMessage:
		_, err := s.router.RelayChatMessage(ctx, ev.RoomID, c.id, ev.Text, ev.DisplayName)
		s.dropped(ctx, ev, err)
	}
}

// dropped logs router failures. The sender is not told.
func (s *Server) dropped(ctx context.Context, ev event.Inbound, err error) {
	if err == nil {
		return
	}
	reason := "invalid"
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		reason = "room_not_found"
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		reason = "unsupported_language"
	}
	s.metrics.EventDropped(reason)
	logger.FromContext(ctx).Debug("ws event dropped", "type", ev.Type(), "reason", reason, "err", err)
}

func (s *Server) reply(c *conn, msg event.Message) {
	s.hub.Deliver([]string{c.id}, msg)
}
