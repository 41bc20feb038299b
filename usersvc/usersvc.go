package usersvc

import "errors"

type User struct {
	ID           uint64 `json:"id" gorm:"primaryKey"`
	Name         string `json:"name"`
	Username     string `json:"username" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	TasksCount   uint64 `json:"tasksCount"`
}

// Summary is the reduced projection returned when callers only need the
// cached task count, not the full record.
type Summary struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	TasksCount uint64 `json:"tasksCount"`
}

// Identity is the acting user resolved from verified JWT claims.
type Identity struct {
	TokenUUID string
	UserID    uint64
	Username  string
}

type UserRepository interface {
	Find(id uint64) (User, error)
	FindByUsername(username string) (User, error)
	FindAll() ([]User, error)
	IsExists(id uint64) (bool, error)
	Create(user User) (User, error)
	Update(user User) (User, error)
	Delete(id uint64) (bool, error)
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrClaimsMissing   = errors.New("JWT claims was not passed through the context")
	ErrClaimsInvalid   = errors.New("JWT claims was invalid")
)
