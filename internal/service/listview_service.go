package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// TaskView pairs a task with its current actionable instance (the earliest
// pending one, or the most recent instance when nothing is pending).
type TaskView struct {
	Task     model.Task          `json:"task"`
	Instance *model.TaskInstance `json:"instance,omitempty"`
}

// ChecklistView is the portal's read model for one task list.
type ChecklistView struct {
	List         model.TaskList `json:"list"`
	CheckedOutBy *uint          `json:"checked_out_by,omitempty"`
	Tasks        []TaskView     `json:"tasks"`
}

// ListViewService assembles the read surface the portal client renders.
type ListViewService struct {
	tasks     *repository.TaskRepository
	instances *repository.InstanceRepository
	checkouts *repository.CheckoutRepository
	identity  *IdentityService
}

func NewListViewService(tasks *repository.TaskRepository, instances *repository.InstanceRepository, checkouts *repository.CheckoutRepository, identity *IdentityService) *ListViewService {
	return &ListViewService{tasks: tasks, instances: instances, checkouts: checkouts, identity: identity}
}

// Checklist returns the list's tasks with their current instances and the
// checkout holder, gated by the same access rule as mutations.
func (s *ListViewService) Checklist(ctx context.Context, listID uint, actor *model.User) (*ChecklistView, error) {
	list, err := s.tasks.FindList(ctx, listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task list %d: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("find task list: %w", err)
	}
	allowed, err := s.identity.CanAccessList(ctx, actor, list)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("user %d on list %d: %w", actor.ID, listID, ErrForbidden)
	}

	view := &ChecklistView{List: *list, Tasks: []TaskView{}}

	checkout, err := s.checkouts.Find(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("find checkout: %w", err)
	}
	if checkout != nil {
		view.CheckedOutBy = &checkout.UserID
	}

	tasks, err := s.tasks.ListByTaskList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for _, task := range tasks {
		instances, err := s.instances.ListByTask(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
		view.Tasks = append(view.Tasks, TaskView{Task: task, Instance: currentInstance(instances)})
	}
	return view, nil
}

// LocationLists returns the lists of a location the actor belongs to.
func (s *ListViewService) LocationLists(ctx context.Context, locationID uint, actor *model.User) ([]model.TaskList, error) {
	if !actor.IsSuperadmin() {
		member, err := s.identity.users.MemberOf(ctx, actor.ID, locationID)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("user %d at location %d: %w", actor.ID, locationID, ErrForbidden)
		}
	}
	return s.tasks.ListsByLocation(ctx, locationID)
}

func currentInstance(instances []model.TaskInstance) *model.TaskInstance {
	for i := range instances {
		if instances[i].Status == model.StatusPending {
			return &instances[i]
		}
	}
	if len(instances) == 0 {
		return nil
	}
	return &instances[len(instances)-1]
}
