package taskservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/authsvc/pkg/authendpoint"
	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/usersvc"
	"github.com/taskboard/backend/usersvc/pkg/userendpoint"
)

type taskRepositoryStub struct {
	tasks  map[uint64]tasksvc.Task
	nextID uint64
}

func newTaskRepositoryStub() *taskRepositoryStub {
	return &taskRepositoryStub{tasks: make(map[uint64]tasksvc.Task), nextID: 1}
}

func (r *taskRepositoryStub) Create(task tasksvc.Task, userID uint64) (tasksvc.Task, error) {
	task.ID = r.nextID
	task.UserID = userID
	r.nextID++
	r.tasks[task.ID] = task
	return task, nil
}

func (r *taskRepositoryStub) FindAll(userID uint64) ([]tasksvc.Task, error) {
	var out []tasksvc.Task
	for _, task := range r.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *taskRepositoryStub) FindFiltered(userID uint64, filter tasksvc.Filter) ([]tasksvc.Task, error) {
	var out []tasksvc.Task
	for _, task := range r.tasks {
		if task.UserID != userID {
			continue
		}
		if filter.Date != nil && (task.Date == nil || !task.Date.Equal(*filter.Date)) {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *taskRepositoryStub) Find(taskID uint64) (tasksvc.Task, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return task, nil
}

func (r *taskRepositoryStub) Update(task tasksvc.Task) (tasksvc.Task, error) {
	existing, ok := r.tasks[task.ID]
	if !ok {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	existing.Title = task.Title
	existing.Description = task.Description
	existing.Date = task.Date
	existing.Completed = task.Completed
	r.tasks[task.ID] = existing
	return existing, nil
}

func (r *taskRepositoryStub) Delete(taskID uint64) (bool, error) {
	if _, ok := r.tasks[taskID]; !ok {
		return false, nil
	}
	delete(r.tasks, taskID)
	return true, nil
}

var testAuth = tasksvc.Auth{AccessUUID: "uuid", UserID: 1, Username: "gopher"}

func TestCreateTask(t *testing.T) {
	svc := NewBasicService(newTaskRepositoryStub())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, testAuth, tasksvc.Task{Title: "chore"}, 1)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, uint64(1), created.UserID)

	t.Run("blank title", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, testAuth, tasksvc.Task{}, 1)
		assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
	})

	t.Run("missing auth", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, tasksvc.Auth{}, tasksvc.Task{Title: "chore"}, 1)
		assert.ErrorIs(t, err, tasksvc.ErrInvalidArgument)
	})
}

func TestFilteredTasks(t *testing.T) {
	repo := newTaskRepositoryStub()
	svc := NewBasicService(repo)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, testAuth, tasksvc.Task{Title: "open"}, 1)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, testAuth, tasksvc.Task{Title: "done", Completed: true}, 1)
	require.NoError(t, err)

	completed := true

	tasks, err := svc.FilteredTasks(ctx, testAuth, 1, tasksvc.Filter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "done", tasks[0].Title)

	t.Run("zero filter lists everything", func(t *testing.T) {
		tasks, err := svc.FilteredTasks(ctx, testAuth, 1, tasksvc.Filter{})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})
}

func TestValidatingMiddleware(t *testing.T) {
	newService := func(validateErr, existsErr error) Service {
		validateUUID := func(_ context.Context, request interface{}) (interface{}, error) {
			return authendpoint.ValidateResponse{V: validateErr == nil, Err: validateErr}, nil
		}
		isUserExists := func(_ context.Context, request interface{}) (interface{}, error) {
			return userendpoint.IsExistsResponse{V: existsErr == nil, Err: existsErr}, nil
		}

		var svc Service
		{
			svc = NewBasicService(newTaskRepositoryStub())
			svc = ValidatingMiddleware(validateUUID, isUserExists)(svc)
		}
		return svc
	}
	ctx := context.Background()

	t.Run("passes live sessions through", func(t *testing.T) {
		svc := newService(nil, nil)

		_, err := svc.CreateTask(ctx, testAuth, tasksvc.Task{Title: "chore"}, 1)
		assert.NoError(t, err)
	})

	t.Run("rejects revoked tokens", func(t *testing.T) {
		svc := newService(inmem.ErrKeyNotFound, nil)

		_, err := svc.CreateTask(ctx, testAuth, tasksvc.Task{Title: "chore"}, 1)
		assert.ErrorIs(t, err, inmem.ErrKeyNotFound)
	})

	t.Run("rejects vanished users", func(t *testing.T) {
		svc := newService(nil, usersvc.ErrUserNotFound)

		_, err := svc.Tasks(ctx, testAuth, 1)
		assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	})
}
