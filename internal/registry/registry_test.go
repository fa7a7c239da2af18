package registry

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestCreate_Defaults(t *testing.T) {
	r := New(Options{})
	now := time.Now()

	s, err := r.Create(now)
	require.NoError(t, err)

	assert.Regexp(t, roomIDPattern, s.RoomID)
	assert.NotEmpty(t, s.ID)
	assert.NotEqual(t, s.RoomID, s.ID)
	assert.Equal(t, domain.DefaultCode, s.Code)
	assert.Equal(t, domain.DefaultLanguage, s.Language)
	assert.Empty(t, s.Participants)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, 1, r.Len())
}

func TestCreate_ConcurrentIDsAreUnique(t *testing.T) {
	r := New(Options{})
	const n = 500

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Create(time.Now())
			if err == nil {
				ids <- s.RoomID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate room id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, r.Len())
}

func TestCreate_RegeneratesOnCollision(t *testing.T) {
	seq := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	var i int
	r := New(Options{NewID: func() (string, error) {
		id := seq[i]
		i++
		return id, nil
	}})

	first, err := r.Create(time.Now())
	require.NoError(t, err)
	second, err := r.Create(time.Now())
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.RoomID)
	assert.Equal(t, "BBBBBB", second.RoomID)
	assert.Equal(t, 4, i)
}

func TestCreate_GivesUpWhenIDSpaceIsExhausted(t *testing.T) {
	r := New(Options{NewID: func() (string, error) { return "SAME01", nil }})

	_, err := r.Create(time.Now())
	require.NoError(t, err)

	_, err = r.Create(time.Now())
	assert.ErrorIs(t, err, domain.ErrRoomIDExhausted)
}

func TestCreate_GeneratorError(t *testing.T) {
	boom := errors.New("entropy gone")
	r := New(Options{NewID: func() (string, error) { return "", boom }})

	_, err := r.Create(time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestGet_Unknown(t *testing.T) {
	r := New(Options{})
	_, ok := r.Get("NOPE00")
	assert.False(t, ok)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	r := New(Options{})
	s, err := r.Create(time.Now())
	require.NoError(t, err)

	got, ok := r.Get(s.RoomID)
	require.True(t, ok)
	got.Code = "mutated"
	got.Participants = append(got.Participants, domain.Participant{ConnectionID: "x"})

	again, _ := r.Get(s.RoomID)
	assert.Equal(t, domain.DefaultCode, again.Code)
	assert.Empty(t, again.Participants)
}

func TestUpdate(t *testing.T) {
	r := New(Options{})
	s, err := r.Create(time.Now())
	require.NoError(t, err)

	err = r.Update(s.RoomID, func(sess *domain.Session) error {
		sess.Code = "print(1)"
		return nil
	})
	require.NoError(t, err)

	got, _ := r.Get(s.RoomID)
	assert.Equal(t, "print(1)", got.Code)

	err = r.Update("MISSING", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestUpdate_PropagatesCallbackError(t *testing.T) {
	r := New(Options{})
	s, _ := r.Create(time.Now())
	boom := errors.New("boom")

	err := r.Update(s.RoomID, func(*domain.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDelete_Idempotent(t *testing.T) {
	r := New(Options{})
	s, _ := r.Create(time.Now())

	_, ok := r.Delete(s.RoomID)
	assert.True(t, ok)
	_, ok = r.Delete(s.RoomID)
	assert.False(t, ok)
	_, ok = r.Delete("NEVER0")
	assert.False(t, ok)

	_, found := r.Get(s.RoomID)
	assert.False(t, found)
	assert.Equal(t, 0, r.Len())
}

func TestDeleteIfEmpty(t *testing.T) {
	r := New(Options{})
	s, _ := r.Create(time.Now())

	require.NoError(t, r.Update(s.RoomID, func(sess *domain.Session) error {
		sess.AddParticipant(domain.Participant{ConnectionID: "c1"})
		return nil
	}))

	_, deleted := r.DeleteIfEmpty(s.RoomID)
	assert.False(t, deleted)

	require.NoError(t, r.Update(s.RoomID, func(sess *domain.Session) error {
		sess.RemoveParticipant("c1")
		return nil
	}))

	snap, deleted := r.DeleteIfEmpty(s.RoomID)
	assert.True(t, deleted)
	assert.Equal(t, s.RoomID, snap.RoomID)

	err := r.Update(s.RoomID, func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestUpdate_SerializesPerRoom(t *testing.T) {
	r := New(Options{})
	s, _ := r.Create(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Update(s.RoomID, func(sess *domain.Session) error {
				sess.Code += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := r.Get(s.RoomID)
	assert.Len(t, got.Code, len(domain.DefaultCode)+200)
}

func TestIDs_Sorted(t *testing.T) {
	seq := []string{"CCCCCC", "AAAAAA", "BBBBBB"}
	var i int
	r := New(Options{NewID: func() (string, error) { id := seq[i]; i++; return id, nil }})
	for range seq {
		_, err := r.Create(time.Now())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"AAAAAA", "BBBBBB", "CCCCCC"}, r.IDs())
}

func TestRandomIDs_Length(t *testing.T) {
	id, err := RandomIDs(8)()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, id)

	id, err = RandomIDs(0)()
	require.NoError(t, err)
	assert.Len(t, id, DefaultIDLength)
}

func TestDeleteWith_RunsCallbackBeforeRemoval(t *testing.T) {
	r := New(Options{})
	s, err := r.Create(time.Now())
	require.NoError(t, err)
	require.NoError(t, r.Update(s.RoomID, func(sess *domain.Session) error {
		sess.AddParticipant(domain.Participant{ConnectionID: "c1", DisplayName: "Alice"})
		return nil
	}))

	var seen []string
	snap, ok := r.DeleteWith(s.RoomID, func(sess *domain.Session) {
		seen = sess.ConnectionIDs("")
		sess.Participants = nil
	})

	require.True(t, ok)
	assert.Equal(t, []string{"c1"}, seen)
	assert.Len(t, snap.Participants, 1)
	_, found := r.Get(s.RoomID)
	assert.False(t, found)
}
