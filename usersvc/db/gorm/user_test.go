package gorm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/usersvc"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

func newTestDB(t *testing.T) *libgorm.DB {
	t.Helper()

	db, err := libgorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &libgorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{}))

	return db
}

func TestUserRepositoryCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(usersvc.User{Name: "Gopher", Username: "gopher", PasswordHash: "x"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Create(usersvc.User{Name: "Other", Username: "gopher", PasswordHash: "y"})
		assert.ErrorIs(t, err, usersvc.ErrUsernameTaken)
	})
}

func TestUserRepositoryFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(usersvc.User{Name: "Gopher", Username: "gopher", PasswordHash: "x"})
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		found, err := repo.Find(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Username, found.Username)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := repo.FindByUsername("gopher")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Find(999)
		assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := repo.FindByUsername("nobody")
		assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	})
}

func TestUserRepositoryIsExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(usersvc.User{Name: "Gopher", Username: "gopher", PasswordHash: "x"})
	require.NoError(t, err)

	exists, err := repo.IsExists(created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.IsExists(999)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	assert.False(t, exists)
}

func TestUserRepositoryUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(usersvc.User{Name: "Gopher", Username: "gopher", PasswordHash: "x"})
	require.NoError(t, err)

	t.Run("renames without touching the username", func(t *testing.T) {
		updated, err := repo.Update(usersvc.User{ID: created.ID, Name: "Renamed", Username: "hijacked"})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "gopher", updated.Username)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.Update(usersvc.User{ID: 999, Name: "Ghost"})
		assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	})
}

func TestUserRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(usersvc.User{Name: "Gopher", Username: "gopher", PasswordHash: "x"})
	require.NoError(t, err)

	task := tasksvc.Task{Title: "chore", UserID: created.ID}
	require.NoError(t, db.Create(&task).Error)

	deleted, err := repo.Delete(created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	t.Run("removes owned tasks", func(t *testing.T) {
		var count int64
		db.Model(&tasksvc.Task{}).Where("user_id = ?", created.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("second delete is a no-op", func(t *testing.T) {
		deleted, err := repo.Delete(created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
