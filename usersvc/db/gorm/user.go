package gorm

import (
	"errors"

	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/usersvc"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Find(id uint64) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.First(&user, id)

	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

func (u *userRepository) FindByUsername(username string) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.Where("username = ?", username).First(&user)

	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

func (u *userRepository) FindAll() ([]usersvc.User, error) {
	var users []usersvc.User
	result := u.db.Find(&users)

	return users, result.Error
}

func (u *userRepository) IsExists(id uint64) (bool, error) {
	var count int64
	result := u.db.Model(&usersvc.User{}).Where("id = ?", id).Count(&count)

	if result.Error != nil {
		return false, result.Error
	}
	if count == 0 {
		return false, usersvc.ErrUserNotFound
	}

	return true, nil
}

func (u *userRepository) Create(user usersvc.User) (usersvc.User, error) {
	var count int64
	u.db.Model(&usersvc.User{}).Where("username = ?", user.Username).Count(&count)
	if count > 0 {
		return usersvc.User{}, usersvc.ErrUsernameTaken
	}

	result := u.db.Create(&user)

	return user, result.Error
}

func (u *userRepository) Update(user usersvc.User) (usersvc.User, error) {
	existing, err := u.Find(user.ID)
	if err != nil {
		return usersvc.User{}, err
	}

	result := u.db.Model(&existing).Updates(
		map[string]interface{}{
			"name": user.Name,
		})
	if result.Error != nil {
		return usersvc.User{}, result.Error
	}

	return existing, nil
}

// Delete removes the user and every task it owns in one transaction.
// A missing user is not an error; the boolean reports whether anything
// was removed.
func (u *userRepository) Delete(id uint64) (bool, error) {
	_, err := u.Find(id)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = u.db.Transaction(func(tx *libgorm.DB) error {
		if result := tx.Where("user_id = ?", id).Delete(&tasksvc.Task{}); result.Error != nil {
			return result.Error
		}
		if result := tx.Delete(&usersvc.User{}, id); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}
