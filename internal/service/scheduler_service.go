package service

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps the cron runner for the portal's background jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{cron: cron.New(cron.WithLocation(loc))}
}

// ScheduleEvery runs a named job at a fixed interval.
func (s *SchedulerService) ScheduleEvery(interval time.Duration, name string, job func()) error {
	if interval < time.Second {
		return fmt.Errorf("interval %s too short for job %s", interval, name)
	}
	spec := fmt.Sprintf("@every %s", interval.Round(time.Second))
	if _, err := s.cron.AddFunc(spec, logged(name, job)); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// ScheduleDailyAt runs a named job once a day at hour:minute.
func (s *SchedulerService) ScheduleDailyAt(hour, minute int, name string, job func()) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid time %02d:%02d for job %s", hour, minute, name)
	}
	// cron format: minute hour dom month dow
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, logged(name, job)); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func logged(name string, job func()) func() {
	return func() {
		started := time.Now()
		job()
		log.Printf("[info] job %s ran in %s", name, time.Since(started).Round(time.Millisecond))
	}
}
