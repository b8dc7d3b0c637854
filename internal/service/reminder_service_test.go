package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"linecheck/internal/model"
)

func TestDailySummaryListsDueWork(t *testing.T) {
	env := newTestEnv(t)
	location := env.seedLocation(t, "Downtown")
	list := env.seedList(t, location.ID, "Opening")
	due := env.seedTask(t, &model.Task{TaskListID: list.ID, Title: "Brew coffee"})
	done := env.seedTask(t, &model.Task{TaskListID: list.ID, Title: "Stock cups"})
	env.seedInstance(t, due.ID, model.StatusPending, time.Now().Add(-48*time.Hour))
	env.seedInstance(t, done.ID, model.StatusCompleted, time.Now())

	reminders := NewReminderService(env.tasks, env.instances)
	summary, err := reminders.DailySummary(context.Background(), location, time.Now())
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if !strings.Contains(summary, "Brew coffee") {
		t.Errorf("summary missing overdue task: %q", summary)
	}
	if strings.Contains(summary, "Stock cups") {
		t.Errorf("summary should not list completed task: %q", summary)
	}
}

func TestDailySummaryEmptyWhenNothingDue(t *testing.T) {
	env := newTestEnv(t)
	location := env.seedLocation(t, "Downtown")
	list := env.seedList(t, location.ID, "Opening")
	task := env.seedTask(t, &model.Task{TaskListID: list.ID, Title: "Brew coffee"})
	env.seedInstance(t, task.ID, model.StatusPending, time.Now().AddDate(0, 0, 5))

	reminders := NewReminderService(env.tasks, env.instances)
	summary, err := reminders.DailySummary(context.Background(), location, time.Now())
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if summary != "" {
		t.Errorf("summary: got %q, want empty", summary)
	}
}
