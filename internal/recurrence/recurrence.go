// Package recurrence computes when the next occurrence of a recurring task
// falls due. All functions are pure; callers decide what to do with the dates.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"linecheck/internal/model"
)

// Config is the recurrence descriptor of a task.
type Config struct {
	Type        string
	Interval    int
	Unit        string
	DaysOfWeek  []int // 0=Sunday .. 6=Saturday
	DaysOfMonth []int // 1..31, clamped to shorter months
}

// ConfigFromTask extracts the recurrence descriptor from a task row.
func ConfigFromTask(task *model.Task) Config {
	return Config{
		Type:        task.RecurrenceType,
		Interval:    task.RecurrenceInterval,
		Unit:        task.RecurrenceUnit,
		DaysOfWeek:  task.DaysOfWeek,
		DaysOfMonth: task.DaysOfMonth,
	}
}

// NextDueDate returns the first due date strictly after from for the given
// config. An unrecognized type or malformed config yields an error; callers
// treat that as "no next occurrence".
func NextDueDate(cfg Config, from time.Time) (time.Time, error) {
	switch cfg.Type {
	case model.RecurDaily:
		return from.AddDate(0, 0, 1), nil
	case model.RecurWeekly:
		return nextWeekly(cfg.DaysOfWeek, from)
	case model.RecurMonthly:
		return nextMonthly(cfg.DaysOfMonth, from)
	case model.RecurInterval:
		return nextInterval(cfg.Interval, cfg.Unit, from)
	default:
		return time.Time{}, fmt.Errorf("unrecognized recurrence type %q", cfg.Type)
	}
}

// NextInstance computes the pending successor instance for a recurring task,
// or nil if the task's config yields no next occurrence.
func NextInstance(task *model.Task, base time.Time) *model.TaskInstance {
	due, err := NextDueDate(ConfigFromTask(task), base)
	if err != nil {
		return nil
	}
	return &model.TaskInstance{
		TaskID:  task.ID,
		DueDate: due,
		Status:  model.StatusPending,
	}
}

func nextWeekly(days []int, from time.Time) (time.Time, error) {
	if len(days) == 0 {
		return from.AddDate(0, 0, 7), nil
	}
	sorted, err := sortedDays(days, 0, 6)
	if err != nil {
		return time.Time{}, fmt.Errorf("days of week: %w", err)
	}
	current := int(from.Weekday())
	for _, d := range sorted {
		if d > current {
			return from.AddDate(0, 0, d-current), nil
		}
	}
	// Wrap to the earliest scheduled day next week.
	return from.AddDate(0, 0, 7-current+sorted[0]), nil
}

func nextMonthly(days []int, from time.Time) (time.Time, error) {
	if len(days) == 0 {
		return addMonths(from, 1), nil
	}
	sorted, err := sortedDays(days, 1, 31)
	if err != nil {
		return time.Time{}, fmt.Errorf("days of month: %w", err)
	}
	year, month, today := from.Date()
	for _, d := range sorted {
		if d > today {
			return onDayOfMonth(from, year, month, d), nil
		}
	}
	// Roll to the earliest scheduled day of the next month.
	next := time.Date(year, month, 1, 0, 0, 0, 0, from.Location()).AddDate(0, 1, 0)
	return onDayOfMonth(from, next.Year(), next.Month(), sorted[0]), nil
}

func nextInterval(interval int, unit string, from time.Time) (time.Time, error) {
	if interval <= 0 {
		return time.Time{}, fmt.Errorf("interval must be positive, got %d", interval)
	}
	switch unit {
	case model.UnitDays:
		return from.AddDate(0, 0, interval), nil
	case model.UnitWeeks:
		return from.AddDate(0, 0, 7*interval), nil
	case model.UnitMonths:
		return addMonths(from, interval), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized recurrence unit %q", unit)
	}
}

// addMonths advances by whole calendar months, clamping to the last day of
// the target month so Jan 31 + 1 month lands on Feb 28/29, never Mar 3.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	ty, tm, _ := target.Date()
	if last := daysInMonth(tm, ty); day > last {
		day = last
	}
	return time.Date(ty, tm, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// onDayOfMonth places from's clock time on the requested day of the given
// month, clamped to that month's length.
func onDayOfMonth(from time.Time, year int, month time.Month, day int) time.Time {
	if last := daysInMonth(month, year); day > last {
		day = last
	}
	return time.Date(year, month, day, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func sortedDays(days []int, min, max int) ([]int, error) {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)
	for _, d := range sorted {
		if d < min || d > max {
			return nil, fmt.Errorf("day %d out of range %d..%d", d, min, max)
		}
	}
	return sorted, nil
}
