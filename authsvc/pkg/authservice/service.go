package authservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/taskboard/backend/authsvc"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/usersvc"
	stduuid "github.com/twinj/uuid"
)

type Service interface {
	Register(ctx context.Context, username, password string) (usersvc.User, error)
	Login(ctx context.Context, username, password string) (map[string]string, error)
	Logout(ctx context.Context, accessUUID string) (bool, error)
	Refresh(ctx context.Context, accessUUID, refreshUUID string, userID uint64) (map[string]string, error)
	Validate(ctx context.Context, accessUUID string) (bool, error)
}

func New(u usersvc.UserRepository, t Tokenizer, h Hasher, c inmem.Client, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(u, t, h, c)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users     usersvc.UserRepository
	tokenizer Tokenizer
	hasher    Hasher
	client    inmem.Client
}

func NewBasicService(u usersvc.UserRepository, t Tokenizer, h Hasher, c inmem.Client) Service {
	return &basicService{users: u, tokenizer: t, hasher: h, client: c}
}

// Register creates a user with a zeroed task counter. The display name
// defaults to the username.
func (s *basicService) Register(_ context.Context, username, password string) (usersvc.User, error) {
	if username == "" || password == "" {
		return usersvc.User{}, authsvc.ErrInvalidArgument
	}

	_, err := s.users.FindByUsername(username)
	if err == nil {
		return usersvc.User{}, usersvc.ErrUsernameTaken
	}
	if !errors.Is(err, usersvc.ErrUserNotFound) {
		return usersvc.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return usersvc.User{}, err
	}

	user := usersvc.User{
		Name:         username,
		Username:     username,
		PasswordHash: hash,
		TasksCount:   0,
	}

	return s.users.Create(user)
}

// Login collapses unknown usernames and failed password checks into the
// same error, so callers cannot probe which usernames exist.
func (s *basicService) Login(_ context.Context, username, password string) (map[string]string, error) {
	if username == "" || password == "" {
		return nil, authsvc.ErrInvalidArgument
	}

	user, err := s.users.FindByUsername(username)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return nil, authsvc.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, authsvc.ErrInvalidCredentials
	}

	at, rt, err := s.tokenizer.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.storeTokens(at, rt)

	return s.compileTokens(at, rt), nil
}

func (s *basicService) Logout(_ context.Context, accessUUID string) (bool, error) {
	if accessUUID == "" {
		return false, authsvc.ErrInvalidArgument
	}

	ruuid := stduuid.NewV5(stduuid.NameSpaceURL, accessUUID).String()

	var err error
	{
		err = s.client.Delete(accessUUID)
		if err != nil {
			return false, err
		}
		err = s.client.Delete(ruuid)
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

func (s *basicService) Refresh(_ context.Context, accessUUID, refreshUUID string, userID uint64) (map[string]string, error) {
	if refreshUUID == "" || userID == 0 {
		return nil, authsvc.ErrInvalidArgument
	}

	if err := s.client.Get(refreshUUID); err != nil {
		return nil, err
	}

	user, err := s.users.Find(userID)
	if err != nil {
		return nil, err
	}

	s.client.Delete(accessUUID)
	s.client.Delete(refreshUUID)

	at, rt, err := s.tokenizer.Generate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.storeTokens(at, rt)

	return s.compileTokens(at, rt), nil
}

func (s *basicService) Validate(_ context.Context, accessUUID string) (bool, error) {
	if accessUUID == "" {
		return false, authsvc.ErrInvalidArgument
	}

	if err := s.client.Get(accessUUID); err != nil {
		return false, err
	}

	return true, nil
}

func (s *basicService) storeTokens(at *AccessToken, rt *RefreshToken) {
	s.client.Put(at.UUID, []byte(at.Hash))
	s.client.Put(rt.RefreshUUID, []byte(rt.Hash))
}

func (s *basicService) compileTokens(at *AccessToken, rt *RefreshToken) map[string]string {
	return map[string]string{
		"access":  at.Hash,
		"refresh": rt.Hash,
	}
}
