package httpmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/security"
	"github.com/cwrk-planet/coderoom/internal/service"
	"github.com/cwrk-planet/coderoom/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// Authorizer checks a host token for a room.
type Authorizer func(ctx context.Context, roomID, token string) error

// HostAuth guards routes under /{roomId} with the room's host token,
// sent as "Authorization: Bearer <token>".
func HostAuth(authorize Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			roomID := domain.NormalizeRoomID(chi.URLParam(r, "roomId"))
			err := authorize(r.Context(), roomID, token)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrRoomNotFound):
				httputil.Error(r.Context(), w, http.StatusNotFound, "room not found", nil)
			case errors.Is(err, security.ErrWrongRoom), errors.Is(err, service.ErrNotHost):
				httputil.Error(r.Context(), w, http.StatusForbidden, "token does not grant access to this room", nil)
			case errors.Is(err, security.ErrTokenExpired), errors.Is(err, security.ErrInvalidToken):
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "invalid host token", nil)
			default:
				slog.Error("httpmw.HostAuth", slog.Any("err", err))
				httputil.Error(r.Context(), w, http.StatusInternalServerError, "internal error", nil)
			}
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(auth[len("Bearer "):])
	return token, token != ""
}
