package userservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/usersvc"
)

type userRepositoryStub struct {
	users  map[uint64]usersvc.User
	nextID uint64
}

func newUserRepositoryStub(users ...usersvc.User) *userRepositoryStub {
	r := &userRepositoryStub{users: make(map[uint64]usersvc.User), nextID: 1}
	for _, u := range users {
		r.Create(u)
	}
	return r
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
	if _, ok := r.users[id]; !ok {
		return false, usersvc.ErrUserNotFound
	}
	return true, nil
}

func (r *userRepositoryStub) Create(user usersvc.User) (usersvc.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepositoryStub) Update(user usersvc.User) (usersvc.User, error) {
	existing, ok := r.users[user.ID]
	if !ok {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}
	existing.Name = user.Name
	r.users[user.ID] = existing
	return existing, nil
}

func (r *userRepositoryStub) Delete(id uint64) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func TestSummary(t *testing.T) {
	svc := NewBasicService(newUserRepositoryStub(
		usersvc.User{Name: "Gopher", Username: "gopher", TasksCount: 5},
	))
	ctx := context.Background()

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, usersvc.Summary{ID: 1, Name: "Gopher", TasksCount: 5}, summary)

	_, err = svc.Summary(ctx, 999)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	_, err = svc.Summary(ctx, 0)
	assert.ErrorIs(t, err, usersvc.ErrInvalidArgument)
}

func TestUpdateName(t *testing.T) {
	repo := newUserRepositoryStub(
		usersvc.User{Name: "Gopher", Username: "gopher"},
	)
	svc := NewBasicService(repo)
	ctx := context.Background()

	t.Run("renames the acting user", func(t *testing.T) {
		identity := usersvc.Identity{UserID: 1, Username: "gopher"}

		updated, err := svc.UpdateName(ctx, identity, "Renamed")
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "gopher", updated.Username)
	})

	t.Run("blank name", func(t *testing.T) {
		identity := usersvc.Identity{UserID: 1, Username: "gopher"}

		_, err := svc.UpdateName(ctx, identity, "")
		assert.ErrorIs(t, err, usersvc.ErrInvalidArgument)
	})

	t.Run("unknown identity", func(t *testing.T) {
		identity := usersvc.Identity{UserID: 999, Username: "nobody"}

		_, err := svc.UpdateName(ctx, identity, "Renamed")
		assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	})
}

func TestDeleteUser(t *testing.T) {
	svc := NewBasicService(newUserRepositoryStub(
		usersvc.User{Name: "Gopher", Username: "gopher"},
	))
	ctx := context.Background()

	deleted, err := svc.DeleteUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestIsExists(t *testing.T) {
	svc := NewBasicService(newUserRepositoryStub(
		usersvc.User{Name: "Gopher", Username: "gopher"},
	))
	ctx := context.Background()

	exists, err := svc.IsExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.IsExists(ctx, 999)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}
