package wallet

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completion struct {
	value int
	err   error
}

func listen(t *Task[int]) <-chan completion {
	ch := make(chan completion, 1)
	t.AddOnCompleteListener(func(v int, err error) {
		ch <- completion{value: v, err: err}
	})
	return ch
}

func receive(t *testing.T, ch <-chan completion) completion {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("listener not called")
		return completion{}
	}
}

func TestTask_ListenerBeforeCompletion(t *testing.T) {
	task := NewTask[int]()
	ch := listen(task)

	assert.False(t, task.IsComplete())
	require.True(t, task.SetResult(7))

	got := receive(t, ch)
	require.NoError(t, got.err)
	assert.Equal(t, 7, got.value)
}

func TestTask_ListenerAfterCompletion(t *testing.T) {
	boom := errors.New("boom")
	task := FailedTask[int](boom)

	got := receive(t, listen(task))
	require.ErrorIs(t, got.err, boom)
	assert.True(t, task.IsComplete())
}

func TestTask_CompletesOnce(t *testing.T) {
	task := NewTask[int]()
	first := listen(task)

	require.True(t, task.SetResult(1))
	assert.False(t, task.SetResult(2))
	assert.False(t, task.SetError(errors.New("late")))

	assert.Equal(t, 1, receive(t, first).value)
	assert.Equal(t, 1, receive(t, listen(task)).value)

	select {
	case c := <-first:
		t.Fatalf("listener called twice: %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTask_CompletedTask(t *testing.T) {
	got := receive(t, listen(CompletedTask(42)))
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.value)
}
