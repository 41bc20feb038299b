package authservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/authsvc"
	"github.com/twinj/uuid"
)

func TestTokenizerGenerate(t *testing.T) {
	tk := NewTokenizer()

	at, rt, err := tk.Generate(1, "gopher")
	require.NoError(t, err)

	assert.NotEmpty(t, at.UUID)
	assert.NotEmpty(t, at.Hash)
	assert.Equal(t, at.UUID, rt.AccessUUID)
	assert.Equal(t, uuid.NewV5(uuid.NameSpaceURL, at.UUID).String(), rt.RefreshUUID)
}

func TestTokenizerParse(t *testing.T) {
	tk := NewTokenizer()

	t.Run("access token round trip", func(t *testing.T) {
		at, _, err := tk.Generate(42, "gopher")
		require.NoError(t, err)

		identity, err := tk.Parse(at.Hash)
		require.NoError(t, err)

		assert.Equal(t, at.UUID, identity.TokenUUID)
		assert.Equal(t, uint64(42), identity.UserID)
		assert.Equal(t, "gopher", identity.Username)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		_, rt, err := tk.Generate(42, "gopher")
		require.NoError(t, err)

		identity, err := tk.ParseRefresh(rt.Hash)
		require.NoError(t, err)

		assert.Equal(t, rt.RefreshUUID, identity.TokenUUID)
		assert.Equal(t, uint64(42), identity.UserID)
		assert.Equal(t, "gopher", identity.Username)
	})

	t.Run("expired token", func(t *testing.T) {
		timeNow = func() time.Time {
			return time.Now().Add(-time.Hour)
		}
		defer func() { timeNow = time.Now }()

		at, _, err := tk.Generate(42, "gopher")
		require.NoError(t, err)

		_, err = tk.Parse(at.Hash)
		assert.ErrorIs(t, err, authsvc.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, rt, err := tk.Generate(42, "gopher")
		require.NoError(t, err)

		// A refresh token is signed with the refresh secret, so the
		// access parser must reject it.
		_, err = tk.Parse(rt.Hash)
		assert.ErrorIs(t, err, authsvc.ErrSignatureInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := tk.Parse("not.a.token")
		assert.ErrorIs(t, err, authsvc.ErrTokenMalformed)
	})
}
