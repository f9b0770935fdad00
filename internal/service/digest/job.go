package digest

import (
	"context"
	"fmt"
)

// Job adapts one digest period to the scheduler.
type Job struct {
	aggregator *Aggregator
	period     Period
}

func NewJob(aggregator *Aggregator, period Period) *Job {
	return &Job{aggregator: aggregator, period: period}
}

func (j *Job) Name() string {
	return fmt.Sprintf("digest-%s", j.period)
}

func (j *Job) Run(ctx context.Context) error {
	_, err := j.aggregator.ProcessPendingDigests(ctx, j.period)
	return err
}
