package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
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

func (mw loggingMiddleware) User(ctx context.Context, id uint64) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "User", "id", id, "err", err)
	}()
	return mw.next.User(ctx, id)
}

func (mw loggingMiddleware) Summary(ctx context.Context, id uint64) (s usersvc.Summary, err error) {
	defer func() {
		mw.logger.Log("method", "Summary", "id", id, "err", err)
	}()
	return mw.next.Summary(ctx, id)
}

func (mw loggingMiddleware) Users(ctx context.Context) (u []usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Users", "err", err)
	}()
	return mw.next.Users(ctx)
}

func (mw loggingMiddleware) UpdateName(ctx context.Context, identity usersvc.Identity, name string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "UpdateName", "username", identity.Username, "name", name, "err", err)
	}()
	return mw.next.UpdateName(ctx, identity, name)
}

func (mw loggingMiddleware) UpdateUser(ctx context.Context, user usersvc.User) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "UpdateUser", "id", user.ID, "err", err)
	}()
	return mw.next.UpdateUser(ctx, user)
}

func (mw loggingMiddleware) DeleteUser(ctx context.Context, id uint64) (result bool, err error) {
	defer func() {
		mw.logger.Log("method", "DeleteUser", "id", id, "result", result, "err", err)
	}()
	return mw.next.DeleteUser(ctx, id)
}

func (mw loggingMiddleware) IsExists(ctx context.Context, id uint64) (v bool, err error) {
	defer func() {
		mw.logger.Log("method", "IsExists", "id", id, "v", v, "err", err)
	}()
	return mw.next.IsExists(ctx, id)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) User(ctx context.Context, id uint64) (u usersvc.User, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "user").Add(1)
		mw.requestLatency.With("method", "user").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.User(ctx, id)
}

func (mw instrumentingMiddleware) Summary(ctx context.Context, id uint64) (s usersvc.Summary, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "summary").Add(1)
		mw.requestLatency.With("method", "summary").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Summary(ctx, id)
}

func (mw instrumentingMiddleware) Users(ctx context.Context) (u []usersvc.User, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "users").Add(1)
		mw.requestLatency.With("method", "users").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Users(ctx)
}

func (mw instrumentingMiddleware) UpdateName(ctx context.Context, identity usersvc.Identity, name string) (u usersvc.User, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_name").Add(1)
		mw.requestLatency.With("method", "update_name").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateName(ctx, identity, name)
}

func (mw instrumentingMiddleware) UpdateUser(ctx context.Context, user usersvc.User) (u usersvc.User, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_user").Add(1)
		mw.requestLatency.With("method", "update_user").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateUser(ctx, user)
}

func (mw instrumentingMiddleware) DeleteUser(ctx context.Context, id uint64) (result bool, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "delete_user").Add(1)
		mw.requestLatency.With("method", "delete_user").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.DeleteUser(ctx, id)
}

func (mw instrumentingMiddleware) IsExists(ctx context.Context, id uint64) (v bool, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "is_exists").Add(1)
		mw.requestLatency.With("method", "is_exists").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.IsExists(ctx, id)
}
