package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"linecheck/internal/model"
	"linecheck/internal/repository"
)

// ReminderService builds human-readable checklist summaries for the daily
// location reports.
type ReminderService struct {
	tasks     *repository.TaskRepository
	instances *repository.InstanceRepository
}

func NewReminderService(tasks *repository.TaskRepository, instances *repository.InstanceRepository) *ReminderService {
	return &ReminderService{tasks: tasks, instances: instances}
}

// DailySummary renders the open work across a location's checklists: pending
// instances due today or overdue, grouped by list. Returns "" when there is
// nothing to report.
func (s *ReminderService) DailySummary(ctx context.Context, location *model.Location, now time.Time) (string, error) {
	lists, err := s.tasks.ListsByLocation(ctx, location.ID)
	if err != nil {
		return "", err
	}

	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>%s</b>\n", html.EscapeString(location.Name)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("02.01.2006")))

	reported := false
	for _, list := range lists {
		section, err := s.listSection(ctx, &list, now, endOfDay)
		if err != nil {
			return "", err
		}
		if section == "" {
			continue
		}
		reported = true
		builder.WriteString("\n")
		builder.WriteString(section)
	}

	if !reported {
		return "", nil
	}
	return strings.TrimSpace(builder.String()), nil
}

func (s *ReminderService) listSection(ctx context.Context, list *model.TaskList, now, endOfDay time.Time) (string, error) {
	tasks, err := s.tasks.ListByTaskList(ctx, list.ID)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, task := range tasks {
		instances, err := s.instances.ListByTask(ctx, task.ID)
		if err != nil {
			return "", err
		}
		for _, inst := range instances {
			if inst.Status != model.StatusPending || inst.DueDate.After(endOfDay) {
				continue
			}
			icon := "⏳"
			if inst.DueDate.Before(now.Truncate(24 * time.Hour)) {
				icon = "⚠️"
			}
			lines = append(lines, fmt.Sprintf("%s %s · due %s",
				icon, html.EscapeString(strings.TrimSpace(task.Title)), inst.DueDate.Format("2006-01-02")))
		}
	}

	if len(lines) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔖 <b>%s</b>\n", html.EscapeString(list.Name)))
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
