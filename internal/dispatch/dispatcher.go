package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrStopped is returned for work submitted to a dispatcher that has stopped.
var ErrStopped = errors.New("dispatcher stopped")

type job struct {
	name   string
	fn     func() error
	result chan error
}

// Dispatcher runs submitted functions one at a time on a single goroutine,
// in submission order. It is how goroutines such as HTTP handlers reach
// the single-threaded game core.
type Dispatcher struct {
	jobs   chan job
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a dispatcher with room for buffer pending jobs.
func New(log *slog.Logger, buffer int) *Dispatcher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		jobs:   make(chan job, buffer),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start processes jobs until Stop is called. It blocks.
func (d *Dispatcher) Start() {
	d.log.Info("Dispatcher starting")
	defer close(d.done)

	for {
		select {
		case <-d.ctx.Done():
			d.drain()
			d.log.Info("Dispatcher shutting down")
			return
		case j := <-d.jobs:
			j.result <- d.run(j)
		}
	}
}

// Stop ends the processing loop. Jobs still queued fail with ErrStopped.
func (d *Dispatcher) Stop() {
	d.cancel()
}

// Done is closed once Start has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Do runs fn on the dispatcher goroutine and waits for its result. If ctx
// ends after fn was queued, fn still runs but Do returns ctx.Err().
func (d *Dispatcher) Do(ctx context.Context, name string, fn func() error) error {
	j := job{name: name, fn: fn, result: make(chan error, 1)}

	select {
	case <-d.ctx.Done():
		return ErrStopped
	default:
	}

	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return ErrStopped
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		select {
		case err := <-j.result:
			return err
		default:
			return ErrStopped
		}
	}
}

func (d *Dispatcher) run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Dispatched job panicked", "job", j.name, "panic", r)
			err = fmt.Errorf("%s: panic: %v", j.name, r)
		}
	}()

	if err := j.fn(); err != nil {
		d.log.Debug("Dispatched job failed", "job", j.name, "error", err)
		return err
	}
	return nil
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.jobs:
			j.result <- ErrStopped
		default:
			return
		}
	}
}
