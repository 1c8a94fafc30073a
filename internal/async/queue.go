// Package async feeds watched files to the pipeline one at a time.
package async

import (
	"context"
	"time"
)

// Job is one file waiting to be filed.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// Handler processes one job. The queue never runs two jobs at once.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
