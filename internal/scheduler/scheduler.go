package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/teamhub/notification-service/pkg/logger"
)

// Job is a scheduled task owned by the worker process.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule decides when a job fires relative to its last run.
type Schedule interface {
	// Next returns the first fire time strictly after the given instant.
	Next(after time.Time) time.Time
}

// DailySchedule fires once per day at the given hour (UTC).
type DailySchedule struct {
	Hour int
}

func (s DailySchedule) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WeeklySchedule fires once per week on the given weekday and hour (UTC).
type WeeklySchedule struct {
	Weekday time.Weekday
	Hour    int
}

func (s WeeklySchedule) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, after.Location())
	days := (int(s.Weekday) - int(next.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// IntervalSchedule fires on a fixed period.
type IntervalSchedule struct {
	Every time.Duration
}

func (s IntervalSchedule) Next(after time.Time) time.Time {
	return after.Add(s.Every)
}

type entry struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
}

// Scheduler owns the pipeline's periodic jobs (digest runs, subscription
// sweeps) with an explicit Start/Stop lifecycle and an injected clock, so
// tests advance virtual time instead of waiting on real timers.
type Scheduler struct {
	entries  []*entry
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(logger *logger.Logger, checkInterval time.Duration) *Scheduler {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	return &Scheduler{
		interval: checkInterval,
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds a job; the first fire is the schedule's next slot after
// registration time.
func (s *Scheduler) Register(job Job, schedule Schedule) {
	if job == nil || schedule == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(s.now()),
	})
}

// Start launches the scheduling loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunDue(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// RunDue fires every job whose slot has arrived. Exported so both the
// loop and deterministic tests drive it directly.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.nextRun.After(now) {
			due = append(due, e)
			e.nextRun = e.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		start := now
		s.logger.Info("scheduled job starting", "job", e.job.Name())
		if err := e.job.Run(ctx); err != nil {
			s.logger.Error(err, "scheduled job failed", "job", e.job.Name())
			continue
		}
		s.logger.Info("scheduled job completed",
			"job", e.job.Name(),
			"duration", time.Since(start).String())
	}
}
