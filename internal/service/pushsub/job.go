package pushsub

import (
	"context"
)

// CleanupJob adapts the staleness sweep to the scheduler.
type CleanupJob struct {
	service Service
}

func NewCleanupJob(service Service) *CleanupJob {
	return &CleanupJob{service: service}
}

func (j *CleanupJob) Name() string {
	return "push-subscription-cleanup"
}

func (j *CleanupJob) Run(ctx context.Context) error {
	_, err := j.service.CleanupStale(ctx)
	return err
}
