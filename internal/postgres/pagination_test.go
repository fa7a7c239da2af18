package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 123000000, time.UTC), ID: "m-1"}

	s, err := EncodeCursor(in)
	require.NoError(t, err)
	assert.NotContains(t, s, "=")

	out, err := DecodeCursor(s)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeCursor_EmptyIsFirstPage(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, s := range []string{"!!!", "bm90LWpzb24", "e30"} {
		_, err := DecodeCursor(s)
		assert.ErrorIs(t, err, ErrInvalidCursor, s)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, ClampLimit(0, 50, 100))
	assert.Equal(t, 50, ClampLimit(-3, 50, 100))
	assert.Equal(t, 7, ClampLimit(7, 50, 100))
	assert.Equal(t, 100, ClampLimit(1000, 50, 100))
}
