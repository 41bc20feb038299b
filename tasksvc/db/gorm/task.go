package gorm

import (
	"errors"

	"github.com/taskboard/backend/tasksvc"
	"github.com/taskboard/backend/usersvc"
	libgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *libgorm.DB
}

func NewTaskRepository(db *libgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

// Create inserts the task and bumps the owner's cached task count in a
// single transaction, so a crash between the two writes cannot leave
// the counter out of sync with the task rows.
func (t *taskRepository) Create(task tasksvc.Task, userID uint64) (tasksvc.Task, error) {
	task.ID = 0
	task.UserID = userID

	err := t.db.Transaction(func(tx *libgorm.DB) error {
		var count int64
		if result := tx.Model(&usersvc.User{}).Where("id = ?", userID).Count(&count); result.Error != nil {
			return result.Error
		}
		if count == 0 {
			return usersvc.ErrUserNotFound
		}

		result := tx.Model(&usersvc.User{}).
			Where("id = ?", userID).
			UpdateColumn("tasks_count", libgorm.Expr("tasks_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}

		return tx.Create(&task).Error
	})
	if err != nil {
		return tasksvc.Task{}, err
	}

	return task, nil
}

func (t *taskRepository) FindAll(userID uint64) ([]tasksvc.Task, error) {
	var tasks []tasksvc.Task
	result := t.db.Where("user_id = ?", userID).Find(&tasks)

	return tasks, result.Error
}

func (t *taskRepository) FindFiltered(userID uint64, filter tasksvc.Filter) ([]tasksvc.Task, error) {
	query := t.db.Where("user_id = ?", userID)
	if filter.Date != nil {
		query = query.Where("date = ?", *filter.Date)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}

	var tasks []tasksvc.Task
	result := query.Find(&tasks)

	return tasks, result.Error
}

func (t *taskRepository) Find(taskID uint64) (tasksvc.Task, error) {
	var task tasksvc.Task
	result := t.db.First(&task, taskID)

	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return task, result.Error
}

// Update overwrites title, description, date and completed on the stored
// record. The owner reference is never reassigned here.
func (t *taskRepository) Update(task tasksvc.Task) (tasksvc.Task, error) {
	existing, err := t.Find(task.ID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	result := t.db.Model(&existing).Updates(
		map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"date":        task.Date,
			"completed":   task.Completed,
		})
	if result.Error != nil {
		return tasksvc.Task{}, result.Error
	}

	return existing, nil
}

// Delete does not touch the owner's tasks_count; only task creation
// maintains the cached aggregate.
func (t *taskRepository) Delete(taskID uint64) (bool, error) {
	_, err := t.Find(taskID)
	if errors.Is(err, tasksvc.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	result := t.db.Delete(&tasksvc.Task{}, taskID)
	if result.Error != nil {
		return false, result.Error
	}

	return true, nil
}
