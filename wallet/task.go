package wallet

import "sync"

// Task is a pending vendor operation. It completes once, with either a result
// or an error, and notifies every registered completion listener.
type Task[T any] struct {
	mu        sync.Mutex
	complete  bool
	result    T
	err       error
	listeners []func(T, error)
}

func NewTask[T any]() *Task[T] {
	return &Task[T]{}
}

// CompletedTask returns a task already completed with v.
func CompletedTask[T any](v T) *Task[T] {
	t := NewTask[T]()
	t.SetResult(v)
	return t
}

// FailedTask returns a task already completed with err.
func FailedTask[T any](err error) *Task[T] {
	t := NewTask[T]()
	t.SetError(err)
	return t
}

// SetResult completes the task successfully. Later completions are ignored.
func (t *Task[T]) SetResult(v T) bool {
	return t.finish(v, nil)
}

// SetError completes the task with err. Later completions are ignored.
func (t *Task[T]) SetError(err error) bool {
	var zero T
	return t.finish(zero, err)
}

func (t *Task[T]) finish(v T, err error) bool {
	t.mu.Lock()
	if t.complete {
		t.mu.Unlock()
		return false
	}
	t.complete = true
	t.result = v
	t.err = err
	listeners := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	for _, l := range listeners {
		go l(v, err)
	}
	return true
}

// AddOnCompleteListener registers fn to run once the task completes. Listeners
// run on their own goroutine, also when the task is already complete.
func (t *Task[T]) AddOnCompleteListener(fn func(result T, err error)) {
	t.mu.Lock()
	if !t.complete {
		t.listeners = append(t.listeners, fn)
		t.mu.Unlock()
		return
	}
	v, err := t.result, t.err
	t.mu.Unlock()

	go fn(v, err)
}

func (t *Task[T]) IsComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complete
}
