package authservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/taskboard/backend/usersvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Register(ctx context.Context, username, password string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "username", username, "err", err)
	}()
	return mw.next.Register(ctx, username, password)
}

func (mw loggingMiddleware) Login(ctx context.Context, username, password string) (tokens map[string]string, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "username", username, "err", err)
	}()
	return mw.next.Login(ctx, username, password)
}

func (mw loggingMiddleware) Logout(ctx context.Context, accessUUID string) (result bool, err error) {
	defer func() {
		mw.logger.Log("method", "Logout", "access_uuid", accessUUID, "result", result, "err", err)
	}()
	return mw.next.Logout(ctx, accessUUID)
}

func (mw loggingMiddleware) Refresh(ctx context.Context, accessUUID, refreshUUID string, userID uint64) (tokens map[string]string, err error) {
	defer func() {
		mw.logger.Log("method", "Refresh", "access_uuid", accessUUID, "user_id", userID, "err", err)
	}()
	return mw.next.Refresh(ctx, accessUUID, refreshUUID, userID)
}

func (mw loggingMiddleware) Validate(ctx context.Context, accessUUID string) (v bool, err error) {
	defer func() {
		mw.logger.Log("method", "Validate", "access_uuid", accessUUID, "err", err)
	}()
	return mw.next.Validate(ctx, accessUUID)
}
