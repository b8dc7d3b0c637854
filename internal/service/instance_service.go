package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/recurrence"
	"linecheck/internal/repository"
)

// InstanceService owns the pending → completed transition for a single task
// instance, including the conditional spawn of the successor instance.
type InstanceService struct {
	instances *repository.InstanceRepository
	tasks     *repository.TaskRepository
	identity  *IdentityService
}

func NewInstanceService(instances *repository.InstanceRepository, tasks *repository.TaskRepository, identity *IdentityService) *InstanceService {
	return &InstanceService{instances: instances, tasks: tasks, identity: identity}
}

// Complete marks a pending instance completed on behalf of actorID. For
// recurring tasks scheduled from completion it also inserts the next pending
// instance; both writes land in one transaction, so a crash or a concurrent
// completion can never record one without the other.
func (s *InstanceService) Complete(ctx context.Context, instanceID, actorID uint) error {
	inst, err := s.instances.FindByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
		}
		return fmt.Errorf("find instance: %w", err)
	}

	task, err := s.tasks.FindByID(ctx, inst.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("task %d: %w", inst.TaskID, ErrNotFound)
		}
		return fmt.Errorf("find task: %w", err)
	}

	list, err := s.tasks.FindList(ctx, task.TaskListID)
	if err != nil {
		return fmt.Errorf("find task list: %w", err)
	}
	actor, err := s.identity.User(ctx, actorID)
	if err != nil {
		return err
	}
	allowed, err := s.identity.CanAccessList(ctx, actor, list)
	if err != nil {
		return fmt.Errorf("check access: %w", err)
	}
	if !allowed {
		return fmt.Errorf("user %d on list %d: %w", actorID, list.ID, ErrForbidden)
	}

	if inst.Status != model.StatusPending {
		return fmt.Errorf("instance %d is %s: %w", inst.ID, inst.Status, ErrConflict)
	}

	now := time.Now()
	next := nextInstanceFor(task, now)
	completion := &model.TaskCompletion{
		TaskID:         task.ID,
		TaskInstanceID: inst.ID,
		CompletedBy:    actorID,
		CompletedAt:    now,
	}
	if err := s.instances.CompleteAndInsertNext(ctx, completion, next, true); err != nil {
		if errors.Is(err, repository.ErrInstanceNotPending) {
			return fmt.Errorf("instance %d already completed: %w", inst.ID, ErrConflict)
		}
		return err
	}
	return nil
}

// nextInstanceFor computes the completion-driven successor. Engine failures
// degrade to "no next instance"; the completion must still succeed.
func nextInstanceFor(task *model.Task, now time.Time) *model.TaskInstance {
	if !task.IsRecurring || !task.RepeatFromCompletion {
		return nil
	}
	due, err := recurrence.NextDueDate(recurrence.ConfigFromTask(task), now)
	if err != nil {
		log.Printf("[warn] task %d: next due date: %v", task.ID, err)
		return nil
	}
	return &model.TaskInstance{TaskID: task.ID, DueDate: due, Status: model.StatusPending}
}
