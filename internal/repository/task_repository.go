package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"linecheck/internal/model"
)

// TaskRepository handles CRUD for tasks and task lists.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListByTaskList(ctx context.Context, listID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("task_list_id = ?", listID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListScheduleDriven returns recurring tasks whose next occurrence is produced
// by the schedule generator rather than by completing the previous one.
func (r *TaskRepository) ListScheduleDriven(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ? AND repeat_from_completion = ?", true, false).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindList(ctx context.Context, listID uint) (*model.TaskList, error) {
	var list model.TaskList
	if err := r.db.WithContext(ctx).First(&list, listID).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *TaskRepository) CreateList(ctx context.Context, list *model.TaskList) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("create task list: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListsByLocation(ctx context.Context, locationID uint) ([]model.TaskList, error) {
	var lists []model.TaskList
	if err := r.db.WithContext(ctx).Where("location_id = ?", locationID).
		Order("name ASC").
		Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}
