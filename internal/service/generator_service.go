package service

import (
	"context"
	"errors"
	"log"
	"time"

	"linecheck/internal/model"
	"linecheck/internal/recurrence"
	"linecheck/internal/repository"
)

// GeneratorService produces pending instances for schedule-driven recurring
// tasks (repeat_from_completion = false). It is the only writer of the
// pending → replaced transition: a pending instance is superseded once the
// occurrence after its due date is itself due.
type GeneratorService struct {
	instances *repository.InstanceRepository
	tasks     *repository.TaskRepository
}

func NewGeneratorService(instances *repository.InstanceRepository, tasks *repository.TaskRepository) *GeneratorService {
	return &GeneratorService{instances: instances, tasks: tasks}
}

// Run performs one generation sweep. Per-task failures are logged and do not
// stop the sweep.
func (s *GeneratorService) Run(ctx context.Context, now time.Time) {
	tasks, err := s.tasks.ListScheduleDriven(ctx)
	if err != nil {
		log.Printf("[error] generator: list tasks: %v", err)
		return
	}
	for i := range tasks {
		if err := s.generateForTask(ctx, &tasks[i], now); err != nil {
			log.Printf("[warn] generator: task %d: %v", tasks[i].ID, err)
		}
	}
}

func (s *GeneratorService) generateForTask(ctx context.Context, task *model.Task, now time.Time) error {
	latest, err := s.instances.LatestByTask(ctx, task.ID)
	if err != nil {
		return err
	}

	cfg := recurrence.ConfigFromTask(task)
	if latest == nil {
		// First occurrence: seed from now.
		due, err := recurrence.NextDueDate(cfg, now)
		if err != nil {
			return err
		}
		return s.instances.Create(ctx, &model.TaskInstance{
			TaskID:  task.ID,
			DueDate: due,
			Status:  model.StatusPending,
		})
	}

	due, err := recurrence.NextDueDate(cfg, latest.DueDate)
	if err != nil {
		return err
	}
	if due.After(now) {
		return nil
	}

	next := &model.TaskInstance{TaskID: task.ID, DueDate: due, Status: model.StatusPending}
	switch latest.Status {
	case model.StatusCompleted, model.StatusReplaced:
		return s.instances.Create(ctx, next)
	case model.StatusPending:
		// Stale pending occurrence: supersede it.
		err := s.instances.ReplaceAndInsert(ctx, latest.ID, next)
		if errors.Is(err, repository.ErrInstanceNotPending) {
			// Lost the race to a completion or another sweep.
			return nil
		}
		return err
	default:
		return nil
	}
}
