package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/logger"
	"github.com/cwrk-planet/coderoom/internal/postgres"
	"github.com/cwrk-planet/coderoom/internal/service"
	"github.com/cwrk-planet/coderoom/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context) (service.CreatedRoom, error)
	GetRoom(ctx context.Context, roomID string) (domain.Session, error)
	AuthorizeHost(ctx context.Context, roomID, token string) error
	Languages() []string
}

type RoomCloser interface {
	CloseRoom(ctx context.Context, roomID string) error
}

type ChatHistory interface {
	History(ctx context.Context, roomID, after string, limit int) ([]domain.ChatMessage, string, error)
}

type Handler struct {
	rooms   RoomSvc
	members RoomCloser
	chat    ChatHistory
}

// NewHandler builds the REST handlers. chat may be nil when the archive is disabled.
func NewHandler(rooms RoomSvc, members RoomCloser, chat ChatHistory) *Handler {
	return &Handler{rooms: rooms, members: members, chat: chat}
}

// POST /api/sessions
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	created, err := h.rooms.CreateRoom(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("handler.CreateRoom", slog.Any("err", err))
		httputil.Error(r.Context(), w, http.StatusInternalServerError, "could not create room", nil)
		return
	}

	httputil.JSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID:             created.RoomID,
		SessionID:          created.SessionID,
		ShareLink:          created.ShareLink,
		HostToken:          created.HostToken,
		HostTokenExpiresAt: created.HostTokenExpiresAt,
	})
}

// GET /api/sessions/{roomId}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	sess, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "roomId"))
	if err != nil {
		h.roomError(w, r, "handler.GetRoom", err)
		return
	}

	httputil.JSON(w, http.StatusOK, SessionResponse{
		RoomID:       sess.RoomID,
		Code:         sess.Code,
		Language:     sess.Language,
		Participants: event.Participants(sess.Participants),
		CreatedAt:    sess.CreatedAt,
	})
}

// DELETE /api/sessions/{roomId}, behind HostAuth
func (h *Handler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.members.CloseRoom(r.Context(), chi.URLParam(r, "roomId")); err != nil {
		h.roomError(w, r, "handler.CloseRoom", err)
		return
	}
	httputil.NoContent(w)
}

// GET /api/sessions/{roomId}/chat?after=&limit=
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		httputil.Error(r.Context(), w, http.StatusNotImplemented, "chat archive disabled", nil)
		return
	}
	roomID := domain.NormalizeRoomID(chi.URLParam(r, "roomId"))
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			httputil.Error(r.Context(), w, http.StatusBadRequest, "limit must be a number", nil)
			return
		}
		limit = n
	}

	items, next, err := h.chat.History(r.Context(), roomID, r.URL.Query().Get("after"), limit)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid cursor", nil)
			return
		}
		logger.FromContext(r.Context()).Error("handler.ChatHistory", slog.Any("err", err), "room", roomID)
		httputil.Error(r.Context(), w, http.StatusInternalServerError, "could not load chat history", nil)
		return
	}

	resp := ChatHistoryResponse{Items: make([]ChatMessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, ChatMessageItem{
			ID:          m.ID,
			SenderID:    m.SenderID,
			DisplayName: m.DisplayName,
			Text:        m.Text,
			Timestamp:   m.SentAt.Truncate(time.Millisecond),
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// GET /api/languages
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, LanguagesResponse{Languages: h.rooms.Languages()})
}

func (h *Handler) roomError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrRoomNotFound) {
		httputil.Error(r.Context(), w, http.StatusNotFound, "room not found", nil)
		return
	}
	logger.FromContext(r.Context()).Error(op, slog.Any("err", err))
	httputil.Error(r.Context(), w, http.StatusInternalServerError, "internal error", nil)
}
