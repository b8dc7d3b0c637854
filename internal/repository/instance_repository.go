package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linecheck/internal/model"
)

// ErrInstanceNotPending is returned when a guarded completion finds the
// instance already completed or replaced.
var ErrInstanceNotPending = errors.New("instance is not pending")

// InstanceRepository handles task instances and their completion records.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func (r *InstanceRepository) Create(ctx context.Context, inst *model.TaskInstance) error {
	if err := r.db.WithContext(ctx).Create(inst).Error; err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	return nil
}

func (r *InstanceRepository) FindByID(ctx context.Context, instanceID uint) (*model.TaskInstance, error) {
	var inst model.TaskInstance
	if err := r.db.WithContext(ctx).First(&inst, instanceID).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListByTask returns all instances of a task ordered by due date.
func (r *InstanceRepository) ListByTask(ctx context.Context, taskID uint) ([]model.TaskInstance, error) {
	var instances []model.TaskInstance
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("due_date ASC, id ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// LatestByTask returns the instance with the latest due date, or nil if the
// task has no instances yet.
func (r *InstanceRepository) LatestByTask(ctx context.Context, taskID uint) (*model.TaskInstance, error) {
	var inst model.TaskInstance
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("due_date DESC, id DESC").
		First(&inst).Error
	switch {
	case err == nil:
		return &inst, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// CompleteAndInsertNext records a completion, marks its instance completed
// and, when next is non-nil, inserts the successor — all in one transaction.
// With requirePending set, a non-pending instance aborts the whole operation
// with ErrInstanceNotPending; the status guard runs inside the transaction so
// concurrent completions of the same instance cannot both win.
func (r *InstanceRepository) CompleteAndInsertNext(ctx context.Context, completion *model.TaskCompletion, next *model.TaskInstance, requirePending bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&model.TaskInstance{}).
			Where("id = ?", completion.TaskInstanceID)
		if requirePending {
			update = update.Where("status = ?", model.StatusPending)
		} else {
			update = update.Where("status <> ?", model.StatusCompleted)
		}
		res := update.Update("status", model.StatusCompleted)
		if res.Error != nil {
			return fmt.Errorf("mark instance completed: %w", res.Error)
		}
		if requirePending && res.RowsAffected == 0 {
			return ErrInstanceNotPending
		}
		if err := tx.Create(completion).Error; err != nil {
			return fmt.Errorf("create completion: %w", err)
		}
		if next != nil {
			if err := tx.Create(next).Error; err != nil {
				return fmt.Errorf("create next instance: %w", err)
			}
		}
		return nil
	})
}

// LatestCompletionByTask returns the most recent completion for a task, or
// nil if the task was never completed.
func (r *InstanceRepository) LatestCompletionByTask(ctx context.Context, taskID uint) (*model.TaskCompletion, error) {
	var completion model.TaskCompletion
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("completed_at DESC, id DESC").
		First(&completion).Error
	switch {
	case err == nil:
		return &completion, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, err
	}
}

// DeleteCompletionAndReset removes a completion record and resets its
// instance to pending in one transaction.
func (r *InstanceRepository) DeleteCompletionAndReset(ctx context.Context, completion *model.TaskCompletion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.TaskCompletion{}, completion.ID).Error; err != nil {
			return fmt.Errorf("delete completion: %w", err)
		}
		if err := tx.Model(&model.TaskInstance{}).
			Where("id = ?", completion.TaskInstanceID).
			Update("status", model.StatusPending).Error; err != nil {
			return fmt.Errorf("reset instance: %w", err)
		}
		return nil
	})
}

// ReplaceAndInsert marks a stale pending instance replaced and inserts its
// successor in one transaction. The pending guard keeps concurrent generator
// runs from superseding the same instance twice.
func (r *InstanceRepository) ReplaceAndInsert(ctx context.Context, staleID uint, next *model.TaskInstance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.TaskInstance{}).
			Where("id = ? AND status = ?", staleID, model.StatusPending).
			Update("status", model.StatusReplaced)
		if res.Error != nil {
			return fmt.Errorf("replace instance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInstanceNotPending
		}
		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("create replacement instance: %w", err)
		}
		return nil
	})
}
