package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomString_UsesAlphabet(t *testing.T) {
	const alphabet = "ABC"
	s, err := RandomString(alphabet, 64)
	require.NoError(t, err)
	require.Len(t, s, 64)
	for _, r := range s {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected symbol %q", r)
	}
}

func TestRandomString_RejectsBadAlphabet(t *testing.T) {
	_, err := RandomString("", 6)
	assert.Error(t, err)
}

func TestTokenIssuer_SignVerify(t *testing.T) {
	iss := NewTokenIssuer("secret", "coderoom", time.Hour)

	tok, err := iss.Sign("session-1", "ROOM01", time.Now())
	require.NoError(t, err)

	claims, err := iss.Verify(tok, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.Subject)
	assert.Equal(t, "ROOM01", claims.RoomID)
}

func TestTokenIssuer_WrongRoom(t *testing.T) {
	iss := NewTokenIssuer("secret", "coderoom", time.Hour)
	tok, err := iss.Sign("session-1", "ROOM01", time.Now())
	require.NoError(t, err)

	_, err = iss.Verify(tok, "ROOM02")
	assert.ErrorIs(t, err, ErrWrongRoom)
}

func TestTokenIssuer_Expired(t *testing.T) {
	iss := NewTokenIssuer("secret", "coderoom", time.Minute)
	tok, err := iss.Sign("session-1", "ROOM01", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = iss.Verify(tok, "ROOM01")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_ForeignSecret(t *testing.T) {
	tok, err := NewTokenIssuer("one", "coderoom", time.Hour).Sign("s", "ROOM01", time.Now())
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", "coderoom", time.Hour).Verify(tok, "ROOM01")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
