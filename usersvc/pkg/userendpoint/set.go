package userendpoint

import (
	"context"
	"fmt"
	"strconv"
	"time"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/sony/gobreaker"
	"github.com/taskboard/backend/usersvc"
	"github.com/taskboard/backend/usersvc/pkg/userservice"
	"golang.org/x/time/rate"
)

type Set struct {
	UserEndpoint       endpoint.Endpoint
	SummaryEndpoint    endpoint.Endpoint
	UsersEndpoint      endpoint.Endpoint
	UpdateNameEndpoint endpoint.Endpoint
	UpdateUserEndpoint endpoint.Endpoint
	DeleteUserEndpoint endpoint.Endpoint
	IsExistsEndpoint   endpoint.Endpoint
}

func New(svc userservice.Service, logger log.Logger) Set {
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))

	var userEndpoint endpoint.Endpoint
	{
		userEndpoint = MakeUserEndpoint(svc)
		userEndpoint = limiter(userEndpoint)
		userEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "User",
			Timeout: 30 * time.Second,
		}))(userEndpoint)
		userEndpoint = LoggingMiddleware(log.With(logger, "method", "User"))(userEndpoint)
	}

	var summaryEndpoint endpoint.Endpoint
	{
		summaryEndpoint = MakeSummaryEndpoint(svc)
		summaryEndpoint = limiter(summaryEndpoint)
		summaryEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Summary",
			Timeout: 30 * time.Second,
		}))(summaryEndpoint)
		summaryEndpoint = LoggingMiddleware(log.With(logger, "method", "Summary"))(summaryEndpoint)
	}

	var usersEndpoint endpoint.Endpoint
	{
		usersEndpoint = MakeUsersEndpoint(svc)
		usersEndpoint = limiter(usersEndpoint)
		usersEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Users",
			Timeout: 30 * time.Second,
		}))(usersEndpoint)
		usersEndpoint = LoggingMiddleware(log.With(logger, "method", "Users"))(usersEndpoint)
	}

	var updateNameEndpoint endpoint.Endpoint
	{
		updateNameEndpoint = MakeUpdateNameEndpoint(svc)
		updateNameEndpoint = limiter(updateNameEndpoint)
		updateNameEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "UpdateName",
			Timeout: 30 * time.Second,
		}))(updateNameEndpoint)
		updateNameEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateName"))(updateNameEndpoint)
	}

	var updateUserEndpoint endpoint.Endpoint
	{
		updateUserEndpoint = MakeUpdateUserEndpoint(svc)
		updateUserEndpoint = limiter(updateUserEndpoint)
		updateUserEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "UpdateUser",
			Timeout: 30 * time.Second,
		}))(updateUserEndpoint)
		updateUserEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateUser"))(updateUserEndpoint)
	}

	var deleteUserEndpoint endpoint.Endpoint
	{
		deleteUserEndpoint = MakeDeleteUserEndpoint(svc)
		deleteUserEndpoint = limiter(deleteUserEndpoint)
		deleteUserEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "DeleteUser",
			Timeout: 30 * time.Second,
		}))(deleteUserEndpoint)
		deleteUserEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteUser"))(deleteUserEndpoint)
	}

	var isExistsEndpoint endpoint.Endpoint
	{
		isExistsEndpoint = MakeIsExistsEndpoint(svc)
		isExistsEndpoint = LoggingMiddleware(log.With(logger, "method", "IsExists"))(isExistsEndpoint)
	}

	return Set{
		UserEndpoint:       userEndpoint,
		SummaryEndpoint:    summaryEndpoint,
		UsersEndpoint:      usersEndpoint,
		UpdateNameEndpoint: updateNameEndpoint,
		UpdateUserEndpoint: updateUserEndpoint,
		DeleteUserEndpoint: deleteUserEndpoint,
		IsExistsEndpoint:   isExistsEndpoint,
	}
}

func (s Set) User(ctx context.Context, id uint64) (usersvc.User, error) {
	response, err := s.UserEndpoint(ctx, UserRequest{ID: id})
	if err != nil {
		return usersvc.User{}, err
	}

	resp := response.(UserResponse)
	return resp.User, resp.Err
}

func (s Set) Summary(ctx context.Context, id uint64) (usersvc.Summary, error) {
	response, err := s.SummaryEndpoint(ctx, SummaryRequest{ID: id})
	if err != nil {
		return usersvc.Summary{}, err
	}

	resp := response.(SummaryResponse)
	return resp.Summary, resp.Err
}

func (s Set) Users(ctx context.Context) ([]usersvc.User, error) {
	response, err := s.UsersEndpoint(ctx, UsersRequest{})
	if err != nil {
		return nil, err
	}

	resp := response.(UsersResponse)
	return resp.Users, resp.Err
}

func (s Set) UpdateName(ctx context.Context, identity usersvc.Identity, name string) (usersvc.User, error) {
	response, err := s.UpdateNameEndpoint(ctx, UpdateNameRequest{Name: name})
	if err != nil {
		return usersvc.User{}, err
	}

	resp := response.(UpdateNameResponse)
	return resp.User, resp.Err
}

func (s Set) UpdateUser(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	response, err := s.UpdateUserEndpoint(ctx, UpdateUserRequest{ID: user.ID, Name: user.Name})
	if err != nil {
		return usersvc.User{}, err
	}

	resp := response.(UpdateUserResponse)
	return resp.User, resp.Err
}

func (s Set) DeleteUser(ctx context.Context, id uint64) (bool, error) {
	response, err := s.DeleteUserEndpoint(ctx, DeleteUserRequest{ID: id})
	if err != nil {
		return false, err
	}

	resp := response.(DeleteUserResponse)
	return resp.Result, resp.Err
}

func (s Set) IsExists(ctx context.Context, id uint64) (bool, error) {
	response, err := s.IsExistsEndpoint(ctx, IsExistsRequest{ID: id})
	if err != nil {
		return false, err
	}

	resp := response.(IsExistsResponse)
	return resp.V, resp.Err
}

func MakeUserEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(UserRequest)
		u, err := s.User(ctx, req.ID)
		return UserResponse{User: u, Err: err}, nil
	}
}

func MakeSummaryEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(SummaryRequest)
		sm, err := s.Summary(ctx, req.ID)
		return SummaryResponse{Summary: sm, Err: err}, nil
	}
}

func MakeUsersEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		_ = request.(UsersRequest)
		u, err := s.Users(ctx)
		return UsersResponse{Users: u, Err: err}, nil
	}
}

func MakeUpdateNameEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		identity, err := identity(ctx)
		if err != nil {
			return UpdateNameResponse{Err: err}, nil
		}

		req := request.(UpdateNameRequest)
		u, err := s.UpdateName(ctx, identity, req.Name)
		return UpdateNameResponse{User: u, Err: err}, nil
	}
}

func MakeUpdateUserEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(UpdateUserRequest)
		u, err := s.UpdateUser(ctx, usersvc.User{ID: req.ID, Name: req.Name})
		return UpdateUserResponse{User: u, Err: err}, nil
	}
}

func MakeDeleteUserEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(DeleteUserRequest)
		r, err := s.DeleteUser(ctx, req.ID)
		return DeleteUserResponse{Result: r, Err: err}, nil
	}
}

func MakeIsExistsEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(IsExistsRequest)
		v, err := s.IsExists(ctx, req.ID)
		return IsExistsResponse{V: v, Err: err}, nil
	}
}

func identity(ctx context.Context) (usersvc.Identity, error) {
	claims, ok := ctx.Value(kitjwt.JWTClaimsContextKey).(stdjwt.MapClaims)
	if !ok {
		return usersvc.Identity{}, usersvc.ErrClaimsMissing
	}

	uuid, ok := claims["uuid"].(string)
	if !ok {
		return usersvc.Identity{}, usersvc.ErrClaimsMissing
	}

	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", claims["user_id"]), 10, 64)
	if err != nil {
		return usersvc.Identity{}, usersvc.ErrClaimsMissing
	}

	username, ok := claims["username"].(string)
	if !ok {
		return usersvc.Identity{}, usersvc.ErrClaimsInvalid
	}

	return usersvc.Identity{TokenUUID: uuid, UserID: userID, Username: username}, nil
}

var (
	_ endpoint.Failer = UserResponse{}
	_ endpoint.Failer = SummaryResponse{}
	_ endpoint.Failer = UsersResponse{}
	_ endpoint.Failer = UpdateNameResponse{}
	_ endpoint.Failer = UpdateUserResponse{}
	_ endpoint.Failer = DeleteUserResponse{}
	_ endpoint.Failer = IsExistsResponse{}
)

type UserRequest struct {
	ID uint64
}

type UserResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r UserResponse) Failed() error { return r.Err }

type SummaryRequest struct {
	ID uint64
}

type SummaryResponse struct {
	Summary usersvc.Summary `json:"summary"`
	Err     error           `json:"-"`
}

func (r SummaryResponse) Failed() error { return r.Err }

type UsersRequest struct{}

type UsersResponse struct {
	Users []usersvc.User `json:"users"`
	Err   error          `json:"-"`
}

func (r UsersResponse) Failed() error { return r.Err }

type UpdateNameRequest struct {
	Name string `json:"name"`
}

type UpdateNameResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r UpdateNameResponse) Failed() error { return r.Err }

type UpdateUserRequest struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type UpdateUserResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r UpdateUserResponse) Failed() error { return r.Err }

type DeleteUserRequest struct {
	ID uint64
}

type DeleteUserResponse struct {
	Result bool  `json:"result"`
	Err    error `json:"-"`
}

func (r DeleteUserResponse) Failed() error { return r.Err }

type IsExistsRequest struct {
	ID uint64 `json:"id"`
}

type IsExistsResponse struct {
	V   bool  `json:"v"`
	Err error `json:"-"`
}

func (r IsExistsResponse) Failed() error { return r.Err }
