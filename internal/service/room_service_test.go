package service

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/registry"
	"github.com/cwrk-planet/coderoom/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomService() (*RoomService, *registry.Registry) {
	svc, rooms, _ := newRoomServiceWithScheduler()
	return svc, rooms
}

func newRoomServiceWithScheduler() (*RoomService, *registry.Registry, *fakeScheduler) {
	rooms := registry.New(registry.Options{})
	tokens := security.NewTokenIssuer("test-secret", "coderoom", time.Hour)
	sched := &fakeScheduler{}
	svc := NewRoomService(rooms, tokens, sched, "https://rooms.example.com/", domain.NewLanguageSet(domain.DefaultLanguages...))
	return svc, rooms, sched
}

func TestCreateRoom(t *testing.T) {
	svc, rooms, sched := newRoomServiceWithScheduler()

	created, err := svc.CreateRoom(context.Background())
	require.NoError(t, err)

	// an unjoined room is reaped like one everybody left
	assert.Equal(t, []string{created.RoomID}, sched.scheduled())
	assert.WithinDuration(t, created.CreatedAt.Add(time.Hour), created.HostTokenExpiresAt, time.Second)

	assert.Regexp(t, `^[A-Z0-9]{6}$`, created.RoomID)
	assert.NotEmpty(t, created.SessionID)
	assert.NotEmpty(t, created.HostToken)
	assert.Equal(t, "https://rooms.example.com/interview/"+created.RoomID, created.ShareLink)

	sess, ok := rooms.Get(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, created.SessionID, sess.ID)
	assert.True(t, sess.IsEmpty())
}

func TestGetRoom(t *testing.T) {
	svc, _ := newRoomService()
	ctx := context.Background()
	created, err := svc.CreateRoom(ctx)
	require.NoError(t, err)

	sess, err := svc.GetRoom(ctx, " "+created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCode, sess.Code)

	_, err = svc.GetRoom(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestAuthorizeHost(t *testing.T) {
	svc, rooms := newRoomService()
	ctx := context.Background()
	a, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	b, err := svc.CreateRoom(ctx)
	require.NoError(t, err)

	assert.NoError(t, svc.AuthorizeHost(ctx, a.RoomID, a.HostToken))
	assert.ErrorIs(t, svc.AuthorizeHost(ctx, a.RoomID, b.HostToken), security.ErrWrongRoom)
	assert.ErrorIs(t, svc.AuthorizeHost(ctx, a.RoomID, "garbage"), security.ErrInvalidToken)

	rooms.Delete(b.RoomID)
	assert.ErrorIs(t, svc.AuthorizeHost(ctx, b.RoomID, b.HostToken), domain.ErrRoomNotFound)
}

func TestAuthorizeHost_StaleSession(t *testing.T) {
	rooms := registry.New(registry.Options{NewID: func() (string, error) { return "SAME01", nil }})
	tokens := security.NewTokenIssuer("test-secret", "coderoom", time.Hour)
	svc := NewRoomService(rooms, tokens, nil, "", domain.NewLanguageSet("python"))
	ctx := context.Background()

	old, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	rooms.Delete(old.RoomID)
	_, err = svc.CreateRoom(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AuthorizeHost(ctx, "SAME01", old.HostToken), ErrNotHost)
}

func TestLanguages(t *testing.T) {
	svc, _ := newRoomService()
	assert.Equal(t, domain.DefaultLanguages, svc.Languages())
}
