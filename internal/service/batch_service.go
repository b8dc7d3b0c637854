package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// Change is one requested completion-state flip for a task.
type Change struct {
	TaskID    uint
	Completed bool
}

// ChangeError reports a single change that could not be applied.
type ChangeError struct {
	TaskID  uint   `json:"task_id"`
	Message string `json:"message"`
}

// BatchResult reports the outcome of a batch. Success is true only when every
// change applied; callers must still inspect Errors on failure since some
// changes may have landed.
type BatchResult struct {
	Success bool          `json:"success"`
	Errors  []ChangeError `json:"errors"`
}

// BatchService applies a caller-supplied set of completion changes to a
// checked-out list in one pass with per-item error isolation.
type BatchService struct {
	instances *repository.InstanceRepository
	tasks     *repository.TaskRepository
	checkouts *CheckoutService
	identity  *IdentityService
	audit     *repository.AuditRepository
}

func NewBatchService(instances *repository.InstanceRepository, tasks *repository.TaskRepository, checkouts *CheckoutService, identity *IdentityService, audit *repository.AuditRepository) *BatchService {
	return &BatchService{instances: instances, tasks: tasks, checkouts: checkouts, identity: identity, audit: audit}
}

// Apply processes the changes against the list's tasks. The actor must hold
// the list's checkout unless superadmin; a list held by a different user
// fails the whole batch. One change failing never aborts the rest. When
// checkinAfter is set the lock is released even on partial failure, and an
// audit row is written regardless of outcome.
func (s *BatchService) Apply(ctx context.Context, listID, actorID uint, changes []Change, checkinAfter bool) (*BatchResult, error) {
	list, err := s.tasks.FindList(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task list %d: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("find task list: %w", err)
	}

	actor, err := s.identity.User(ctx, actorID)
	if err != nil {
		return nil, err
	}
	holder, err := s.checkouts.Holder(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("find checkout: %w", err)
	}
	if holder != nil && holder.UserID != actorID && !actor.IsSuperadmin() {
		return nil, &LockedError{LockedBy: holder.UserID, Err: ErrForbidden}
	}
	if holder == nil && !actor.IsSuperadmin() {
		return nil, fmt.Errorf("list %d not checked out by user %d: %w", listID, actorID, ErrForbidden)
	}

	result := &BatchResult{Errors: []ChangeError{}}
	for _, change := range changes {
		if err := s.applyOne(ctx, list, actorID, change); err != nil {
			result.Errors = append(result.Errors, ChangeError{TaskID: change.TaskID, Message: err.Error()})
		}
	}
	result.Success = len(result.Errors) == 0

	if checkinAfter {
		if err := s.checkouts.Checkin(ctx, listID, actorID); err != nil {
			log.Printf("[warn] checkin after batch on list %d: %v", listID, err)
		}
	}
	s.audit.Record(ctx, "apply-completions", "task_list", listID, actorID, map[string]any{"changes": changes})
	return result, nil
}

func (s *BatchService) applyOne(ctx context.Context, list *model.TaskList, actorID uint, change Change) error {
	task, err := s.tasks.FindByID(ctx, change.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("task %d: %w", change.TaskID, ErrNotFound)
		}
		return fmt.Errorf("find task: %w", err)
	}
	if task.TaskListID != list.ID {
		return fmt.Errorf("task %d does not belong to list %d: %w", task.ID, list.ID, ErrNotFound)
	}
	if change.Completed {
		return s.completeTask(ctx, task, actorID)
	}
	return s.uncompleteTask(ctx, task)
}

// completeTask resolves the target instance — the earliest non-completed one,
// the first instance when everything is completed, or a fresh instance dated
// now when the task has none — and records its completion. A successor is
// spawned only when the target was actually pending.
func (s *BatchService) completeTask(ctx context.Context, task *model.Task, actorID uint) error {
	instances, err := s.instances.ListByTask(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	var target *model.TaskInstance
	for i := range instances {
		if instances[i].Status != model.StatusCompleted {
			target = &instances[i]
			break
		}
	}
	now := time.Now()
	if target == nil && len(instances) > 0 {
		// Everything is completed already; record the repeat completion
		// against the first instance without touching its status.
		completion := &model.TaskCompletion{
			TaskID:         task.ID,
			TaskInstanceID: instances[0].ID,
			CompletedBy:    actorID,
			CompletedAt:    now,
		}
		return s.instances.CompleteAndInsertNext(ctx, completion, nil, false)
	}
	if target == nil {
		target = &model.TaskInstance{TaskID: task.ID, DueDate: now, Status: model.StatusPending}
		if err := s.instances.Create(ctx, target); err != nil {
			return err
		}
	}

	var next *model.TaskInstance
	if target.Status == model.StatusPending {
		next = nextInstanceFor(task, now)
	}
	completion := &model.TaskCompletion{
		TaskID:         task.ID,
		TaskInstanceID: target.ID,
		CompletedBy:    actorID,
		CompletedAt:    now,
	}
	return s.instances.CompleteAndInsertNext(ctx, completion, next, false)
}

// uncompleteTask deletes the task's most recent completion and resets its
// instance to pending. No completion on record is a silent no-op.
func (s *BatchService) uncompleteTask(ctx context.Context, task *model.Task) error {
	completion, err := s.instances.LatestCompletionByTask(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("find completion: %w", err)
	}
	if completion == nil {
		return nil
	}
	return s.instances.DeleteCompletionAndReset(ctx, completion)
}
