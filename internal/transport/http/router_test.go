package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/event"
	"github.com/cwrk-planet/coderoom/internal/postgres"
	"github.com/cwrk-planet/coderoom/internal/registry"
	"github.com/cwrk-planet/coderoom/internal/security"
	"github.com/cwrk-planet/coderoom/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Deliver([]string, event.Message) {}

type fakeHistory struct {
	items []domain.ChatMessage
	next  string
	err   error

	gotRoom, gotAfter string
	gotLimit          int
}

func (f *fakeHistory) History(ctx context.Context, roomID, after string, limit int) ([]domain.ChatMessage, string, error) {
	f.gotRoom, f.gotAfter, f.gotLimit = roomID, after, limit
	return f.items, f.next, f.err
}

type testAPI struct {
	rooms   *registry.Registry
	members *service.MemberService
	handler http.Handler
}

func newTestAPI(t *testing.T, chat ChatHistory) *testAPI {
	t.Helper()
	rooms := registry.New(registry.Options{})
	tokens := security.NewTokenIssuer("secret", "coderoom", time.Hour)
	roomSvc := service.NewRoomService(rooms, tokens, nil, "http://localhost:3000", domain.NewLanguageSet(domain.DefaultLanguages...))
	members := service.NewMemberService(rooms, nopSink{}, nil, nil)

	h := NewHandler(roomSvc, members, chat)
	ws := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	return &testAPI{
		rooms:   rooms,
		members: members,
		handler: NewRouter(h, ws, RouterOptions{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})}),
	}
}

func (a *testAPI) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) create(t *testing.T) CreateRoomResponse {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out CreateRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateAndGetRoom(t *testing.T) {
	api := newTestAPI(t, nil)

	created := api.create(t)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, created.RoomID)
	assert.Equal(t, "http://localhost:3000/interview/"+created.RoomID, created.ShareLink)
	assert.NotEmpty(t, created.SessionID)
	assert.NotEmpty(t, created.HostToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), created.HostTokenExpiresAt, time.Minute)

	rec := api.do(http.MethodGet, "/api/sessions/"+strings.ToLower(created.RoomID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, created.RoomID, sess.RoomID)
	assert.Equal(t, domain.DefaultCode, sess.Code)
	assert.Equal(t, domain.DefaultLanguage, sess.Language)
	assert.NotNil(t, sess.Participants)
	assert.Empty(t, sess.Participants)
}

func TestGetRoom_NotFound(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/api/sessions/NOPE00", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "room not found", body["error"]["message"])
}

func TestCloseRoom_Auth(t *testing.T) {
	api := newTestAPI(t, nil)
	a := api.create(t)
	b := api.create(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, "/api/sessions/"+a.RoomID, "").Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, "/api/sessions/"+a.RoomID, "junk").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/sessions/"+a.RoomID, b.HostToken).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/sessions/NOPE00", a.HostToken).Code)

	rec := api.do(http.MethodDelete, "/api/sessions/"+a.RoomID, a.HostToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := api.rooms.Get(a.RoomID)
	assert.False(t, ok)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/sessions/"+a.RoomID, a.HostToken).Code)
}

func TestLanguages(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/api/languages", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var out LanguagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, domain.DefaultLanguages, out.Languages)
}

func TestChatHistory_Disabled(t *testing.T) {
	api := newTestAPI(t, nil)
	assert.Equal(t, http.StatusNotImplemented, api.do(http.MethodGet, "/api/sessions/ABC123/chat", "").Code)
}

func TestChatHistory(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	hist := &fakeHistory{
		items: []domain.ChatMessage{{ID: "m1", RoomID: "ABC123", SenderID: "c1", DisplayName: "Bob", Text: "hi", SentAt: at}},
		next:  "cursor-2",
	}
	api := newTestAPI(t, hist)

	rec := api.do(http.MethodGet, "/api/sessions/abc123/chat?after=cur&limit=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", hist.gotRoom)
	assert.Equal(t, "cur", hist.gotAfter)
	assert.Equal(t, 10, hist.gotLimit)
	assert.JSONEq(t, `{
		"items": [{"id":"m1","senderId":"c1","displayName":"Bob","text":"hi","timestamp":"2024-02-03T04:05:06Z"}],
		"nextCursor": "cursor-2"
	}`, rec.Body.String())
}

func TestChatHistory_BadInput(t *testing.T) {
	hist := &fakeHistory{err: postgres.ErrInvalidCursor}
	api := newTestAPI(t, hist)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/sessions/ABC123/chat?limit=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/sessions/ABC123/chat?after=zz", "").Code)
}

func TestHealthMetricsAndWS(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, "metrics", api.do(http.MethodGet, "/metrics", "").Body.String())
	assert.Equal(t, http.StatusTeapot, api.do(http.MethodGet, "/ws", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
