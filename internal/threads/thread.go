// Package threads runs plugin functions in the background.
package threads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/groundwork/internal/registry"
)

// ErrAlreadyRunning is returned when Run is called on a running thread.
var ErrAlreadyRunning = errors.New("thread is already running")

// Func is the work a thread performs. ctx is cancelled when the thread is
// stopped or unregistered.
type Func func(ctx context.Context, owner registry.Owner) (any, error)

// Thread is a registered background function together with the outcome of
// its latest run.
type Thread struct {
	Name        string
	Description string
	Function    Func

	owner registry.Owner

	mu       sync.Mutex
	runID    string
	running  bool
	started  time.Time
	ended    time.Time
	response any
	err      error
	cancel   context.CancelFunc
	done     chan struct{}
}

// Owner returns whoever registered the thread.
func (t *Thread) Owner() registry.Owner {
	return t.owner
}

// Run starts the function in a new goroutine and returns its run id.
func (t *Thread) Run(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return "", ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.runID = uuid.NewString()
	t.running = true
	t.started = time.Now()
	t.ended = time.Time{}
	t.response = nil
	t.err = nil
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.execute(runCtx, t.done)
	return t.runID, nil
}

func (t *Thread) execute(ctx context.Context, done chan struct{}) {
	defer close(done)

	response, err := call(ctx, t.Function, t.owner)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel()
	t.response = response
	t.err = err
	t.ended = time.Now()
	t.running = false
}

func call(ctx context.Context, fn Func, owner registry.Owner) (response any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return fn(ctx, owner)
}

// Wait blocks until the current run finishes and returns its outcome. It
// returns immediately when the thread was never started.
func (t *Thread) Wait() (any, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.response, t.err
}

// Stop cancels the context of a running thread.
func (t *Thread) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running && t.cancel != nil {
		t.cancel()
	}
}

// Running reports whether the function is executing.
func (t *Thread) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Status is a snapshot of a thread's latest run.
type Status struct {
	RunID    string
	Running  bool
	Started  time.Time
	Ended    time.Time
	Response any
	Err      error
}

// Status returns the state of the latest run.
func (t *Thread) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		RunID:    t.runID,
		Running:  t.running,
		Started:  t.started,
		Ended:    t.ended,
		Response: t.response,
		Err:      t.err,
	}
}
