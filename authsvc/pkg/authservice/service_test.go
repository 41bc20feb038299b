package authservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/authsvc"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/usersvc"
)

type userRepositoryStub struct {
	users  map[uint64]usersvc.User
	nextID uint64
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{users: make(map[uint64]usersvc.User), nextID: 1}
}

func (r *userRepositoryStub) Find(id uint64) (usersvc.User, error) {
	u, ok := r.users[id]
	if !ok {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepositoryStub) FindByUsername(username string) (usersvc.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return usersvc.User{}, usersvc.ErrUserNotFound
}

func (r *userRepositoryStub) FindAll() ([]usersvc.User, error) {
	var out []usersvc.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *userRepositoryStub) IsExists(id uint64) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

func (r *userRepositoryStub) Create(user usersvc.User) (usersvc.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepositoryStub) Update(user usersvc.User) (usersvc.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepositoryStub) Delete(id uint64) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func newTestService() (Service, *userRepositoryStub, inmem.Client) {
	users := newUserRepositoryStub()
	client := inmem.NewClient()
	svc := NewBasicService(users, NewTokenizer(), NewBcryptHasher(), client)
	return svc, users, client
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	t.Run("creates user with zero task count", func(t *testing.T) {
		u, err := svc.Register(ctx, "gopher", "secret")
		require.NoError(t, err)

		assert.NotZero(t, u.ID)
		assert.Equal(t, "gopher", u.Username)
		assert.Equal(t, "gopher", u.Name)
		assert.Zero(t, u.TasksCount)
		assert.NotEqual(t, "secret", u.PasswordHash)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "gopher", "other")
		assert.ErrorIs(t, err, usersvc.ErrUsernameTaken)
	})

	t.Run("blank arguments", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "secret")
		assert.ErrorIs(t, err, authsvc.ErrInvalidArgument)

		_, err = svc.Register(ctx, "gopher2", "")
		assert.ErrorIs(t, err, authsvc.ErrInvalidArgument)
	})
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "gopher", "secret")
	require.NoError(t, err)

	t.Run("issues a parseable token pair", func(t *testing.T) {
		tokens, err := svc.Login(ctx, "gopher", "secret")
		require.NoError(t, err)

		tk := NewTokenizer()

		identity, err := tk.Parse(tokens["access"])
		require.NoError(t, err)
		assert.Equal(t, "gopher", identity.Username)

		identity, err = tk.ParseRefresh(tokens["refresh"])
		require.NoError(t, err)
		assert.Equal(t, "gopher", identity.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "gopher", "wrong")
		assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "secret")
		assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
	})
}

func TestLogout(t *testing.T) {
	svc, _, client := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "gopher", "secret")
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, "gopher", "secret")
	require.NoError(t, err)

	identity, err := NewTokenizer().Parse(tokens["access"])
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, identity.TokenUUID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Logout(ctx, identity.TokenUUID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Validate(ctx, identity.TokenUUID)
	assert.ErrorIs(t, err, inmem.ErrKeyNotFound)

	refresh, err := NewTokenizer().ParseRefresh(tokens["refresh"])
	require.NoError(t, err)
	assert.ErrorIs(t, client.Get(refresh.TokenUUID), inmem.ErrKeyNotFound)
}

func TestRefresh(t *testing.T) {
	svc, _, client := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "gopher", "secret")
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, "gopher", "secret")
	require.NoError(t, err)

	tk := NewTokenizer()
	access, err := tk.Parse(tokens["access"])
	require.NoError(t, err)
	refresh, err := tk.ParseRefresh(tokens["refresh"])
	require.NoError(t, err)

	t.Run("rotates the pair", func(t *testing.T) {
		rotated, err := svc.Refresh(ctx, access.TokenUUID, refresh.TokenUUID, u.ID)
		require.NoError(t, err)
		assert.NotEqual(t, tokens["access"], rotated["access"])
		assert.NotEqual(t, tokens["refresh"], rotated["refresh"])

		// The old pair is revoked on rotation.
		assert.ErrorIs(t, client.Get(access.TokenUUID), inmem.ErrKeyNotFound)
		assert.ErrorIs(t, client.Get(refresh.TokenUUID), inmem.ErrKeyNotFound)
	})

	t.Run("revoked refresh UUID", func(t *testing.T) {
		_, err := svc.Refresh(ctx, access.TokenUUID, refresh.TokenUUID, u.ID)
		assert.ErrorIs(t, err, inmem.ErrKeyNotFound)
	})
}
