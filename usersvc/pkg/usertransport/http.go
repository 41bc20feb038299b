package usertransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/taskboard/backend/authsvc"
	"github.com/taskboard/backend/usersvc"
	"github.com/taskboard/backend/usersvc/pkg/userendpoint"
)

func NewHTTPHandler(endpoints userendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	kf := func(token *stdjwt.Token) (interface{}, error) {
		return []byte(authsvc.AccessSecret), nil
	}

	parser := kitjwt.NewParser(kf, stdjwt.SigningMethodHS256, kitjwt.MapClaimsFactory)

	var usersEndpoint endpoint.Endpoint
	{
		usersEndpoint = parser(endpoints.UsersEndpoint)
	}

	usersHandler := httptransport.NewServer(
		usersEndpoint,
		decodeHTTPUsersRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var userEndpoint endpoint.Endpoint
	{
		userEndpoint = parser(endpoints.UserEndpoint)
	}

	userHandler := httptransport.NewServer(
		userEndpoint,
		decodeHTTPUserRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var summaryEndpoint endpoint.Endpoint
	{
		summaryEndpoint = parser(endpoints.SummaryEndpoint)
	}

	summaryHandler := httptransport.NewServer(
		summaryEndpoint,
		decodeHTTPSummaryRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var updateNameEndpoint endpoint.Endpoint
	{
		updateNameEndpoint = parser(endpoints.UpdateNameEndpoint)
	}

	updateNameHandler := httptransport.NewServer(
		updateNameEndpoint,
		decodeHTTPUpdateNameRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var updateUserEndpoint endpoint.Endpoint
	{
		updateUserEndpoint = parser(endpoints.UpdateUserEndpoint)
	}

	updateUserHandler := httptransport.NewServer(
		updateUserEndpoint,
		decodeHTTPUpdateUserRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var deleteUserEndpoint endpoint.Endpoint
	{
		deleteUserEndpoint = parser(endpoints.DeleteUserEndpoint)
	}

	deleteUserHandler := httptransport.NewServer(
		deleteUserEndpoint,
		decodeHTTPDeleteUserRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	r := mux.NewRouter()

	r.Methods("GET").Path("/users").Handler(usersHandler)
	r.Methods("GET").Path("/user/{user_id}").Handler(userHandler)
	r.Methods("GET").Path("/user/{user_id}/summary").Handler(summaryHandler)
	r.Methods("PUT").Path("/user/name").Handler(updateNameHandler)
	r.Methods("PUT").Path("/user/{user_id}").Handler(updateUserHandler)
	r.Methods("DELETE").Path("/user/{user_id}").Handler(deleteUserHandler)

	return r
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.WriteHeader(err2code(err))
	json.NewEncoder(w).Encode(errorWrapper{Error: err.Error()})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	switch {
	case errors.Is(err, kitjwt.ErrTokenContextMissing),
		errors.Is(err, kitjwt.ErrTokenExpired),
		errors.Is(err, kitjwt.ErrTokenInvalid),
		errors.Is(err, kitjwt.ErrTokenMalformed),
		errors.Is(err, usersvc.ErrClaimsMissing),
		errors.Is(err, usersvc.ErrClaimsInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, usersvc.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, usersvc.ErrInvalidArgument), errors.Is(err, authsvc.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeHTTPUsersRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return userendpoint.UsersRequest{}, nil
}

func decodeHTTPUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return userendpoint.UserRequest{ID: userID}, nil
}

func decodeHTTPSummaryRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return userendpoint.SummaryRequest{ID: userID}, nil
}

func decodeHTTPUpdateNameRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req userendpoint.UpdateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, usersvc.ErrInvalidArgument
	}

	return req, nil
}

func decodeHTTPUpdateUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	var req userendpoint.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, usersvc.ErrInvalidArgument
	}

	req.ID = userID

	return req, nil
}

func decodeHTTPDeleteUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return userendpoint.DeleteUserRequest{ID: userID}, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}
