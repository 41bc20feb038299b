package userservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/taskboard/backend/usersvc"
)

type Service interface {
	User(ctx context.Context, id uint64) (usersvc.User, error)
	Summary(ctx context.Context, id uint64) (usersvc.Summary, error)
	Users(ctx context.Context) ([]usersvc.User, error)
	UpdateName(ctx context.Context, identity usersvc.Identity, name string) (usersvc.User, error)
	UpdateUser(ctx context.Context, user usersvc.User) (usersvc.User, error)
	DeleteUser(ctx context.Context, id uint64) (bool, error)
	IsExists(ctx context.Context, id uint64) (bool, error)
}

func New(u usersvc.UserRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(u)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users usersvc.UserRepository
}

func NewBasicService(u usersvc.UserRepository) Service {
	return basicService{users: u}
}

func (s basicService) User(_ context.Context, id uint64) (usersvc.User, error) {
	if id == 0 {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}
	return s.users.Find(id)
}

func (s basicService) Summary(_ context.Context, id uint64) (usersvc.Summary, error) {
	if id == 0 {
		return usersvc.Summary{}, usersvc.ErrInvalidArgument
	}

	user, err := s.users.Find(id)
	if err != nil {
		return usersvc.Summary{}, err
	}

	return usersvc.Summary{ID: user.ID, Name: user.Name, TasksCount: user.TasksCount}, nil
}

func (s basicService) Users(_ context.Context) ([]usersvc.User, error) {
	return s.users.FindAll()
}

// UpdateName resolves the acting user by username and overwrites the
// display name only.
func (s basicService) UpdateName(_ context.Context, identity usersvc.Identity, name string) (usersvc.User, error) {
	if identity.Username == "" || name == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}

	user, err := s.users.FindByUsername(identity.Username)
	if err != nil {
		return usersvc.User{}, err
	}

	user.Name = name

	return s.users.Update(user)
}

func (s basicService) UpdateUser(_ context.Context, user usersvc.User) (usersvc.User, error) {
	if user.ID == 0 {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}
	return s.users.Update(user)
}

func (s basicService) DeleteUser(_ context.Context, id uint64) (bool, error) {
	if id == 0 {
		return false, usersvc.ErrInvalidArgument
	}
	return s.users.Delete(id)
}

func (s basicService) IsExists(_ context.Context, id uint64) (bool, error) {
	if id == 0 {
		return false, usersvc.ErrInvalidArgument
	}
	return s.users.IsExists(id)
}
