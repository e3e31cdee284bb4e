package link

import (
	"context"

	"github.com/mcdev12/uwh-display/go/internal/wire"
)

// Sink receives each decoded record on the worker goroutine
type Sink func(ctx context.Context, rec wire.Record) error

// Worker drives a Machine from one dedicated goroutine
type Worker struct {
	machine *Machine
}

// NewWorker wraps m
func NewWorker(m *Machine) *Worker {
	return &Worker{machine: m}
}

// Machine returns the driven state machine
func (w *Worker) Machine() *Machine {
	return w.machine
}

// Run steps the machine until it stops, the sink fails or ctx ends, and
// returns the reason. Cancelling ctx closes the socket so a pending read
// returns.
func (w *Worker) Run(ctx context.Context, sink Sink) error {
	release := context.AfterFunc(ctx, func() { _ = w.machine.Close() })
	defer release()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev := w.machine.Step(ctx)
		switch ev.Kind {
		case EventRecord:
			if err := sink(ctx, ev.Record); err != nil {
				return err
			}
		case EventStop:
			if err := ctx.Err(); err != nil {
				return err
			}
			return ev.Err
		}
	}
}

// Subscribe drives m lazily: a step runs only after the previous event has
// been received, so the caller's select loop stays in control. The stop event
// is delivered once; the channel closes when ctx ends.
func Subscribe(ctx context.Context, m *Machine) <-chan Event {
	ch := make(chan Event)

	go func() {
		defer close(ch)
		release := context.AfterFunc(ctx, func() { _ = m.Close() })
		defer release()

		for {
			ev := m.Step(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
