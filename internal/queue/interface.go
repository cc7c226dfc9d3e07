package queue

import "context"

// Handler processes one job. A returned error counts as a failed attempt.
type Handler[T any] func(ctx context.Context, job T) error

// Queue runs jobs one at a time in submission order. Failed jobs are moved to
// the back of the queue until they have used MaxAttempts attempts.
type Queue[T any] interface {
	Push(job T)
	// Run processes jobs until ctx is cancelled
	Run(ctx context.Context) error
	// Len reports queued jobs, excluding the one in flight
	Len() int
}
