package tasktransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/taskboard/backend/authsvc"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/tasksvc/pkg/taskendpoint"
	"github.com/taskboard/backend/usersvc"
)

func NewHTTPHandler(endpoints taskendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	kf := func(token *stdjwt.Token) (interface{}, error) {
		return []byte(authsvc.AccessSecret), nil
	}

	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = endpoints.CreateTaskEndpoint
		createTaskEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(createTaskEndpoint)
	}

	createTaskHandler := httptransport.NewServer(
		createTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encodeHTTPCreateTaskResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = endpoints.TasksEndpoint
		tasksEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(tasksEndpoint)
	}

	tasksHandler := httptransport.NewServer(
		tasksEndpoint,
		decodeHTTPTasksRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = endpoints.TaskEndpoint
		taskEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(taskEndpoint)
	}

	taskHandler := httptransport.NewServer(
		taskEndpoint,
		decodeHTTPTaskRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var filteredTasksEndpoint endpoint.Endpoint
	{
		filteredTasksEndpoint = endpoints.FilteredTasksEndpoint
		filteredTasksEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(filteredTasksEndpoint)
	}

	filteredTasksHandler := httptransport.NewServer(
		filteredTasksEndpoint,
		decodeHTTPFilteredTasksRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = endpoints.UpdateTaskEndpoint
		updateTaskEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(updateTaskEndpoint)
	}

	updateTaskHandler := httptransport.NewServer(
		updateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = endpoints.DeleteTaskEndpoint
		deleteTaskEndpoint = kitjwt.NewParser(
			kf,
			stdjwt.SigningMethodHS256,
			kitjwt.MapClaimsFactory,
		)(deleteTaskEndpoint)
	}

	deleteTaskHandler := httptransport.NewServer(
		deleteTaskEndpoint,
		decodeHTTPDeleteTaskRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/tasks/{user_id}").Handler(createTaskHandler)
	r.Methods("GET").Path("/tasks/{user_id}").Handler(tasksHandler)
	r.Methods("GET").Path("/tasks/{user_id}/filter").Handler(filteredTasksHandler)
	r.Methods("GET").Path("/task/{task_id}").Handler(taskHandler)
	r.Methods("PUT").Path("/task/{task_id}").Handler(updateTaskHandler)
	r.Methods("DELETE").Path("/task/{task_id}").Handler(deleteTaskHandler)

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
		errors.Is(err, inmem.ErrKeyNotFound),
		errors.Is(err, tasksvc.ErrClaimsMissing),
		errors.Is(err, tasksvc.ErrClaimsInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, usersvc.ErrUserNotFound), errors.Is(err, tasksvc.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, usersvc.ErrInvalidArgument),
		errors.Is(err, authsvc.ErrInvalidArgument),
		errors.Is(err, tasksvc.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	var req taskendpoint.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, tasksvc.ErrInvalidArgument
	}

	req.OwnerID = userID

	return req, nil
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return taskendpoint.TasksRequest{OwnerID: userID}, nil
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	taskID, err := strconv.ParseUint(vars["task_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return taskendpoint.TaskRequest{
		TaskID: taskID,
	}, nil
}

// decodeHTTPFilteredTasksRequest reads the optional date and completed
// query parameters. An absent parameter leaves the corresponding filter
// field nil, which means "do not restrict".
func decodeHTTPFilteredTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["user_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	req := taskendpoint.FilteredTasksRequest{OwnerID: userID}

	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, tasksvc.ErrInvalidArgument
		}
		req.Date = &d
	}

	if v := r.URL.Query().Get("completed"); v != "" {
		c, err := strconv.ParseBool(v)
		if err != nil {
			return nil, tasksvc.ErrInvalidArgument
		}
		req.Completed = &c
	}

	return req, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	taskID, err := strconv.ParseUint(vars["task_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	var req taskendpoint.UpdateTaskRequest

	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, tasksvc.ErrInvalidArgument
	}

	req.TaskID = taskID

	return req, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	taskID, err := strconv.ParseUint(vars["task_id"], 10, 64)
	if err != nil {
		return nil, ErrBadRouting
	}

	return taskendpoint.DeleteTaskRequest{
		TaskID: taskID,
	}, nil
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

func encodeHTTPCreateTaskResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(response)
}
