package wallet

import (
	"encoding/json"
	"errors"
	"sync"
)

// AutoResolver plays the host's part for a load-payment-data task: once the
// task completes it turns the result into a ResultEnvelope tagged with the
// attempt's request code and redelivers it on Results.
type AutoResolver struct {
	results   chan ResultEnvelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewAutoResolver creates a resolver whose Results channel holds up to buffer envelopes.
func NewAutoResolver(buffer int) *AutoResolver {
	return &AutoResolver{
		results: make(chan ResultEnvelope, buffer),
		done:    make(chan struct{}),
	}
}

// Close stops delivery. Envelopes for tasks completing afterwards are dropped.
func (r *AutoResolver) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Results yields one envelope per resolved task.
func (r *AutoResolver) Results() <-chan ResultEnvelope {
	return r.results
}

// ResolveTask redelivers the outcome of task under requestCode.
func (r *AutoResolver) ResolveTask(task *Task[json.RawMessage], requestCode int) {
	task.AddOnCompleteListener(func(data json.RawMessage, err error) {
		select {
		case <-r.done:
			return
		default:
		}
		select {
		case r.results <- Envelope(requestCode, data, err):
		case <-r.done:
		}
	})
}

// Envelope converts a completed load-payment-data result into the envelope the
// host would deliver for it.
func Envelope(requestCode int, data json.RawMessage, err error) ResultEnvelope {
	env := ResultEnvelope{RequestCode: requestCode}
	if err == nil {
		env.Result = ResultOK
		env.Data = data
		return env
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Status: Status{StatusCode: StatusInternalError, StatusMessage: err.Error()}}
	}
	if apiErr.StatusCode == StatusCanceled {
		env.Result = ResultCancelled
		return env
	}

	env.Result = ResultVendorError
	// Status only holds an int and a string, so this cannot fail.
	env.Data, _ = json.Marshal(apiErr.Status)
	return env
}
