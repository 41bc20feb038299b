package tasksvc

import (
	"errors"
	"time"
)

type Task struct {
	ID          uint64     `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date" gorm:"type:date"`
	Completed   bool       `json:"completed"`
	UserID      uint64     `json:"userId" gorm:"index"`
}

// Filter narrows a task listing. A nil field means "no restriction on
// that field"; a set field must match exactly.
type Filter struct {
	Date      *time.Time
	Completed *bool
}

// IsZero reports whether the filter restricts nothing, in which case a
// filtered listing degenerates to a plain listing.
func (f Filter) IsZero() bool {
	return f.Date == nil && f.Completed == nil
}

type TaskRepository interface {
	Create(task Task, userID uint64) (Task, error)
	FindAll(userID uint64) ([]Task, error)
	FindFiltered(userID uint64, filter Filter) ([]Task, error)
	Find(taskID uint64) (Task, error)
	Update(task Task) (Task, error)
	Delete(taskID uint64) (bool, error)
}

type Auth struct {
	AccessUUID string
	UserID     uint64
	Username   string
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
	ErrClaimsMissing   = errors.New("JWT claims was not passed through the context")
	ErrClaimsInvalid   = errors.New("JWT claims was invalid")
)
