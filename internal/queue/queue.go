package queue

import (
	"context"
)

func (q *implQueue[T]) Push(job T) {
	q.push(entry[T]{job: job})
}

func (q *implQueue[T]) push(e entry[T]) {
	q.mu.Lock()
	q.pending = append(q.pending, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *implQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *implQueue[T]) Run(ctx context.Context) error {
	q.logger.Info(ctx, "Queue %s started (max attempts: %d)", q.opts.Name, q.opts.MaxAttempts)
	for {
		e, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				q.logger.Info(ctx, "Queue %s stopped with %d pending jobs", q.opts.Name, q.Len())
				return ctx.Err()
			case <-q.notify:
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		q.process(ctx, e)
	}
}

func (q *implQueue[T]) pop() (entry[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return entry[T]{}, false
	}
	e := q.pending[0]
	q.pending[0] = entry[T]{}
	q.pending = q.pending[1:]
	return e, true
}

func (q *implQueue[T]) process(ctx context.Context, e entry[T]) {
	e.attempts++
	err := q.handler(ctx, e.job)
	if err == nil {
		return
	}

	if e.attempts >= q.opts.MaxAttempts {
		q.logger.Error(ctx, "Queue %s dropped job after %d attempts: %v", q.opts.Name, e.attempts, err)
		return
	}
	q.logger.Warn(ctx, "Queue %s job failed (attempt %d/%d), requeued: %v", q.opts.Name, e.attempts, q.opts.MaxAttempts, err)
	q.push(e)
}
