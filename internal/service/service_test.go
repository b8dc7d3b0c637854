package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// testEnv wires the full service stack against a fresh in-memory database.
type testEnv struct {
	db        *gorm.DB
	users     *repository.UserRepository
	locations *repository.LocationRepository
	tasks     *repository.TaskRepository
	instances *repository.InstanceRepository
	checkouts *repository.CheckoutRepository
	audit     *repository.AuditRepository

	identity  *IdentityService
	instance  *InstanceService
	checkout  *CheckoutService
	batch     *BatchService
	generator *GeneratorService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	env := &testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		locations: repository.NewLocationRepository(db),
		tasks:     repository.NewTaskRepository(db),
		instances: repository.NewInstanceRepository(db),
		checkouts: repository.NewCheckoutRepository(db),
		audit:     repository.NewAuditRepository(db),
	}
	env.identity = NewIdentityService(env.users)
	env.instance = NewInstanceService(env.instances, env.tasks, env.identity)
	env.checkout = NewCheckoutService(env.checkouts, env.tasks, env.identity, env.audit)
	env.batch = NewBatchService(env.instances, env.tasks, env.checkout, env.identity, env.audit)
	env.generator = NewGeneratorService(env.instances, env.tasks)
	return env
}

func (e *testEnv) seedLocation(t *testing.T, name string) *model.Location {
	t.Helper()
	location := &model.Location{Name: name}
	if err := e.locations.Create(context.Background(), location); err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return location
}

func (e *testEnv) seedUser(t *testing.T, name, role string, locationIDs ...uint) *model.User {
	t.Helper()
	user := &model.User{Name: name, Role: role}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, locID := range locationIDs {
		if err := e.users.AddMembership(context.Background(), user.ID, locID); err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}
	return user
}

func (e *testEnv) seedList(t *testing.T, locationID uint, name string) *model.TaskList {
	t.Helper()
	list := &model.TaskList{LocationID: locationID, Name: name}
	if err := e.tasks.CreateList(context.Background(), list); err != nil {
		t.Fatalf("seed list: %v", err)
	}
	return list
}

func (e *testEnv) seedTask(t *testing.T, task *model.Task) *model.Task {
	t.Helper()
	if err := e.tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func (e *testEnv) seedInstance(t *testing.T, taskID uint, status string, due time.Time) *model.TaskInstance {
	t.Helper()
	inst := &model.TaskInstance{TaskID: taskID, Status: status, DueDate: due}
	if err := e.instances.Create(context.Background(), inst); err != nil {
		t.Fatalf("seed instance: %v", err)
	}
	return inst
}

func (e *testEnv) instancesOf(t *testing.T, taskID uint) []model.TaskInstance {
	t.Helper()
	instances, err := e.instances.ListByTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	return instances
}

func (e *testEnv) completionCount(t *testing.T, taskID uint) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&model.TaskCompletion{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		t.Fatalf("count completions: %v", err)
	}
	return count
}
