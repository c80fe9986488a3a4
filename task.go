package arbor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TaskResult is the state of a Task. Done is set once the function returned.
type TaskResult[T any] struct {
	Value T
	Err   error
	Done  bool
}

// Task is a function running on its own goroutine. Its result is published
// through a variable updated on the UI goroutine. The task is canceled when
// the Task is garbage collected.
type Task[T any] struct {
	result *RwVar[TaskResult[T]]
	cancel context.CancelFunc
}

// Spawn runs fn on a new goroutine under the app context.
func Spawn[T any](app *App, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(app.ctx)
	res := NewVar(app, TaskResult[T]{})
	t := &Task[T]{result: res, cancel: cancel}
	go func() {
		v, err := fn(ctx)
		cancel()
		app.Post(func() { _ = res.Set(TaskResult[T]{Value: v, Err: err, Done: true}) })
	}()
	runtime.AddCleanup(t, func(c context.CancelFunc) { c() }, cancel)
	return t
}

// Result is the task state. It changes once, when the task finishes.
func (t *Task[T]) Result() Var[TaskResult[T]] { return ReadOnly[TaskResult[T]](t.result) }

// Cancel cancels the task context. The task still reports a result.
func (t *Task[T]) Cancel() { t.cancel() }

// RunParallel runs the jobs with at most limit running at once and returns
// the first error. A limit below 1 means no limit. The first failure cancels
// the context passed to the others.
func RunParallel(ctx context.Context, limit int, jobs ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, job := range jobs {
		g.Go(func() error { return job(ctx) })
	}
	return g.Wait()
}

// ParallelMap applies fn to every item with at most limit calls at once. The
// results keep the order of items.
func ParallelMap[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	jobs := make([]func(context.Context) error, len(items))
	for i, item := range items {
		jobs[i] = func(ctx context.Context) error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		}
	}
	if err := RunParallel(ctx, limit, jobs...); err != nil {
		return nil, err
	}
	return out, nil
}
