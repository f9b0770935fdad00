package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamhub/notification-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

type countingJob struct {
	name string
	mu   sync.Mutex
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	return j.err
}

func (j *countingJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestDailyScheduleNext(t *testing.T) {
	s := DailySchedule{Hour: 8}

	// Before the slot fires today.
	after := time.Date(2025, 6, 2, 6, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), s.Next(after))

	// At or past the slot fires tomorrow.
	after = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC), s.Next(after))

	after = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC), s.Next(after))
}

func TestWeeklyScheduleNext(t *testing.T) {
	s := WeeklySchedule{Weekday: time.Monday, Hour: 8}

	// 2025-06-02 is a Monday.
	after := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC) // Wednesday
	assert.Equal(t, time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC), s.Next(after))

	// Monday before the hour fires the same day.
	after = time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), s.Next(after))

	// Monday past the hour waits a full week.
	after = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC), s.Next(after))
}

func TestIntervalScheduleNext(t *testing.T) {
	s := IntervalSchedule{Every: 30 * time.Minute}
	after := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, after.Add(30*time.Minute), s.Next(after))
}

func TestRunDueFiresOnlyDueJobs(t *testing.T) {
	clock := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
	s := New(testLogger(), time.Second)
	s.now = func() time.Time { return clock }

	morning := &countingJob{name: "morning"}
	evening := &countingJob{name: "evening"}
	s.Register(morning, DailySchedule{Hour: 8})
	s.Register(evening, DailySchedule{Hour: 20})

	// Nothing is due yet.
	s.RunDue(context.Background())
	assert.Equal(t, 0, morning.runCount())
	assert.Equal(t, 0, evening.runCount())

	clock = time.Date(2025, 6, 2, 8, 0, 1, 0, time.UTC)
	s.RunDue(context.Background())
	assert.Equal(t, 1, morning.runCount())
	assert.Equal(t, 0, evening.runCount())

	// The slot was consumed; the same instant does not re-fire.
	s.RunDue(context.Background())
	assert.Equal(t, 1, morning.runCount())

	// Next day's slot fires again.
	clock = time.Date(2025, 6, 3, 8, 0, 1, 0, time.UTC)
	s.RunDue(context.Background())
	assert.Equal(t, 2, morning.runCount())
}

func TestRunDueJobErrorDoesNotBlockOthers(t *testing.T) {
	clock := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	s := New(testLogger(), time.Second)
	s.now = func() time.Time { return clock }

	failing := &countingJob{name: "failing", err: fmt.Errorf("boom")}
	healthy := &countingJob{name: "healthy"}
	s.Register(failing, DailySchedule{Hour: 8})
	s.Register(healthy, DailySchedule{Hour: 8})

	clock = clock.Add(24 * time.Hour)
	s.RunDue(context.Background())
	assert.Equal(t, 1, failing.runCount())
	assert.Equal(t, 1, healthy.runCount())
}

func TestSchedulerStartStop(t *testing.T) {
	s := New(testLogger(), 5*time.Millisecond)
	job := &countingJob{name: "tick"}
	s.Register(job, IntervalSchedule{Every: time.Millisecond})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return job.runCount() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	runs := job.runCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, runs, job.runCount(), "no runs after Stop")
}

func TestStopWithoutStart(t *testing.T) {
	s := New(testLogger(), time.Second)
	// Must not panic or block.
	s.Stop()
}
