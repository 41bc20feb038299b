package authtransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/securecookie"
	"github.com/taskboard/backend/authsvc"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/authsvc/pkg/authendpoint"
	"github.com/taskboard/backend/authsvc/pkg/authservice"
	"github.com/taskboard/backend/usersvc"
)

const refreshCookieName = "refresh_token"

func NewHTTPHandler(endpoints authendpoint.Set, client inmem.Client, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	sc := securecookie.New([]byte(authsvc.CookieHashKey), []byte(authsvc.CookieBlockKey))

	m := http.NewServeMux()

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		encodeHTTPRegisterResponse,
		options...,
	)

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPLoginResponse(sc),
		options...,
	)

	var logoutEndpoint endpoint.Endpoint
	{
		kf := func(token *stdjwt.Token) (interface{}, error) {
			return []byte(authsvc.AccessSecret), nil
		}

		logoutEndpoint = endpoints.LogoutEndpoint
		logoutEndpoint = NewAuthenticater(client)(logoutEndpoint)
		logoutEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(logoutEndpoint)
	}

	logoutHandler := httptransport.NewServer(
		logoutEndpoint,
		decodeHTTPLogoutRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var refreshEndpoint endpoint.Endpoint
	{
		kf := func(token *stdjwt.Token) (interface{}, error) {
			return []byte(authsvc.RefreshSecret), nil
		}

		refreshEndpoint = endpoints.RefreshEndpoint
		refreshEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(refreshEndpoint)
	}

	refreshHandler := httptransport.NewServer(
		refreshEndpoint,
		decodeHTTPRefreshRequest,
		encodeHTTPLoginResponse(sc),
		append(options, httptransport.ServerBefore(
			kitjwt.HTTPToContext(),
			refreshCookieToContext(sc),
		))...,
	)

	m.Handle("/register", registerHandler)
	m.Handle("/login", loginHandler)
	m.Handle("/logout", logoutHandler)
	m.Handle("/refresh", refreshHandler)

	return m
}

func NewHTTPClient(instance string, logger log.Logger) (authservice.Service, error) {
	// Quickly sanitize the instance string.
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	var options []httptransport.ClientOption

	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/register"),
			encodeHTTPGenericRequest,
			decodeHTTPRegisterResponse,
			options...,
		).Endpoint()
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/login"),
			encodeHTTPGenericRequest,
			decodeHTTPLoginResponse,
			options...,
		).Endpoint()
	}

	var logoutEndpoint endpoint.Endpoint
	{
		logoutEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/logout"),
			encodeHTTPGenericRequest,
			decodeHTTPLogoutResponse,
			append(options, httptransport.ClientBefore(kitjwt.ContextToHTTP()))...,
		).Endpoint()
	}

	var refreshEndpoint endpoint.Endpoint
	{
		refreshEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/refresh"),
			encodeHTTPGenericRequest,
			decodeHTTPRefreshResponse,
			append(options, httptransport.ClientBefore(kitjwt.ContextToHTTP()))...,
		).Endpoint()
	}

	return authendpoint.Set{
		RegisterEndpoint: registerEndpoint,
		LoginEndpoint:    loginEndpoint,
		LogoutEndpoint:   logoutEndpoint,
		RefreshEndpoint:  refreshEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = path
	return &next
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.WriteHeader(err2code(err))
	json.NewEncoder(w).Encode(errorWrapper{Error: err.Error()})
}

func err2code(err error) int {
	switch {
	case errors.Is(err, usersvc.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, authsvc.ErrInvalidArgument), errors.Is(err, usersvc.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, authsvc.ErrTokenExpired),
		errors.Is(err, authsvc.ErrTokenMalformed),
		errors.Is(err, authsvc.ErrSignatureInvalid),
		errors.Is(err, authsvc.ErrClaimsMissing),
		errors.Is(err, authsvc.ErrClaimsInvalid),
		errors.Is(err, authsvc.ErrUUIDMissing),
		errors.Is(err, kitjwt.ErrTokenContextMissing),
		errors.Is(err, kitjwt.ErrTokenExpired),
		errors.Is(err, kitjwt.ErrTokenInvalid),
		errors.Is(err, kitjwt.ErrTokenMalformed),
		errors.Is(err, inmem.ErrKeyNotFound),
		errors.Is(err, usersvc.ErrUserNotFound):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

type errorWrapper struct {
	Error string `json:"error"`
}

// refreshCookieToContext lets browser clients refresh without resending
// the raw token: when no bearer token came in on the request, the JWT is
// recovered from the encrypted refresh cookie set at login.
func refreshCookieToContext(sc *securecookie.SecureCookie) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		if token, ok := ctx.Value(kitjwt.JWTTokenContextKey).(string); ok && token != "" {
			return ctx
		}

		cookie, err := r.Cookie(refreshCookieName)
		if err != nil {
			return ctx
		}

		var token string
		if err := sc.Decode(refreshCookieName, cookie.Value, &token); err != nil {
			return ctx
		}

		return context.WithValue(ctx, kitjwt.JWTTokenContextKey, token)
	}
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func decodeHTTPRegisterResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusCreated {
		return nil, errors.New(r.Status)
	}
	var resp authendpoint.RegisterResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func decodeHTTPLoginResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return nil, errors.New(r.Status)
	}
	var resp authendpoint.LoginResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPLogoutRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return authendpoint.LogoutRequest{}, nil
}

func decodeHTTPLogoutResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return nil, errors.New(r.Status)
	}
	var resp authendpoint.LogoutResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPRefreshRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return authendpoint.RefreshRequest{}, nil
}

func decodeHTTPRefreshResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return nil, errors.New(r.Status)
	}
	var resp authendpoint.RefreshResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

// encodeHTTPGenericRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Body = ioutil.NopCloser(&buf)
	return nil
}

func encodeHTTPRegisterResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(response)
}

type tokenCarrier interface {
	endpoint.Failer
	TokenPair() map[string]string
}

// encodeHTTPLoginResponse additionally stores the refresh token in an
// encrypted, http-only cookie so the raw token never has to live in
// browser storage.
func encodeHTTPLoginResponse(sc *securecookie.SecureCookie) httptransport.EncodeResponseFunc {
	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		c := response.(tokenCarrier)
		if err := c.Failed(); err != nil {
			errorEncoder(ctx, err, w)
			return nil
		}

		if encoded, err := sc.Encode(refreshCookieName, c.TokenPair()["refresh"]); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     refreshCookieName,
				Value:    encoded,
				Path:     "/auth/v1/refresh",
				Expires:  time.Now().Add(authservice.RefreshTokenExpiry()),
				HttpOnly: true,
			})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		return json.NewEncoder(w).Encode(response)
	}
}

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}
