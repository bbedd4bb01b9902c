// SPDX-License-Identifier: BSD-3-Clause

package scripthost

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/eruption-core/eruptiond/pkg/canvas"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/state"
)

const (
	stateRunning = "Running"
	stateFaulted = "Faulted"
	triggerFault = "fault"
)

// Worker runs one script on a dedicated goroutine with its own goja
// runtime; goja runtimes are not safe for concurrent use, so exactly one
// goroutine ever touches w.vm. A script never observes another script's
// frame directly; cross-script communication goes through the host's
// in-memory key/value store or through shared canvas reads of the
// previous frame.
type Worker struct {
	name string
	host *Host

	vm    *goja.Runtime
	frame *canvas.Frame
	queue *boundedQueue
	fsm   *state.FSM

	mu     sync.RWMutex
	params map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

func newWorkerFSM(name string) (*state.FSM, error) {
	return state.New(&state.Config{
		Name:         "scripthost." + name,
		InitialState: stateRunning,
		States:       []string{stateRunning, stateFaulted},
		Transitions: []state.Transition{
			{From: stateRunning, To: stateFaulted, Trigger: triggerFault},
		},
	})
}

func newWorker(host *Host, name, source string, frameW, frameH int, params map[string]string) (*Worker, error) {
	fsm, err := newWorkerFSM(name)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = make(map[string]string)
	}

	w := &Worker{
		name:   name,
		host:   host,
		vm:     goja.New(),
		frame:  canvas.NewFrame(frameW, frameH),
		queue:  newBoundedQueue(),
		fsm:    fsm,
		params: params,
		done:   make(chan struct{}),
	}

	w.installIntrinsics(w.vm, log.GetGlobalLogger())

	if _, err := w.vm.RunString(source); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntryPointFailed, name, err)
	}

	return w, nil
}

// Faulted reports whether the script's fault latch is set.
func (w *Worker) Faulted() bool {
	return w.fsm.CurrentState() == stateFaulted
}

// Frame returns the worker's private frame, safe to read for compositing
// after the worker has processed its queue for the tick; the scheduler
// only reads a worker's frame between ticks, never concurrently with the
// worker's own writes.
func (w *Worker) Frame() *canvas.Frame {
	return w.frame
}

// Enqueue adds a message to the worker's bounded queue.
func (w *Worker) Enqueue(msg Message) {
	w.queue.Enqueue(msg)
}

// DroppedEvents returns the count of non-Tick messages dropped due to
// queue overflow.
func (w *Worker) DroppedEvents() uint64 {
	return w.queue.DropCount()
}

// Start runs the worker's dispatch loop until ctx is canceled or a
// Shutdown message is processed. It calls on_startup before entering the
// loop and on_quit when it exits normally.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go func() {
		defer close(w.done)

		w.callEntryPoint(ctx, "on_startup")

		for {
			select {
			case <-ctx.Done():
				w.callEntryPoint(ctx, "on_quit")
				return
			case <-w.queue.wake:
				for _, msg := range w.queue.drain() {
					if w.dispatch(ctx, msg) {
						return
					}
				}
			}
		}
	}()
}

// Stop cancels the worker's context and waits for its goroutine to exit.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

// dispatch handles one message, returning true if the worker should exit
// (a Shutdown message was processed).
func (w *Worker) dispatch(ctx context.Context, msg Message) bool {
	if w.Faulted() {
		return msg.Kind == MsgShutdown
	}

	switch msg.Kind {
	case MsgTick:
		w.callEntryPoint(ctx, "on_tick")
	case MsgParameterUpdate:
		w.mu.Lock()
		w.params[msg.ParamName] = msg.ParamValue
		w.mu.Unlock()
		w.callEntryPoint(ctx, "on_apply_parameter", msg.ParamName, msg.ParamValue)
	case MsgInputEvent:
		w.dispatchInputEvent(ctx, msg.Event)
	case MsgShutdown:
		w.callEntryPoint(ctx, "on_quit")
		return true
	}
	return false
}

// callEntryPoint invokes a zero-or-more-argument script entry point if
// defined, recovering from a panic or JS exception and marking the script
// faulted, freezing its frame at its last valid contents.
func (w *Worker) callEntryPoint(ctx context.Context, name string, args ...interface{}) {
	defer func() {
		if r := recover(); r != nil {
			w.fault(ctx, fmt.Errorf("%w: %s panicked: %v", ErrEntryPointFailed, name, r))
		}
	}()

	fnVal := w.vm.Get(name)
	if fnVal == nil || goja.IsUndefined(fnVal) {
		return
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return
	}

	callArgs := make([]goja.Value, len(args))
	for i, a := range args {
		callArgs[i] = w.vm.ToValue(a)
	}

	if _, err := fn(goja.Undefined(), callArgs...); err != nil {
		w.fault(ctx, fmt.Errorf("%w: %s: %w", ErrEntryPointFailed, name, err))
	}
}

func (w *Worker) fault(ctx context.Context, err error) {
	l := log.GetGlobalLogger()
	l.ErrorContext(ctx, "script entry point failed, freezing frame", "script", w.name, "error", err)
	_ = w.fsm.Fire(ctx, triggerFault, nil)
}

func (w *Worker) dispatchInputEvent(ctx context.Context, ev interface{}) {
	// Concrete event normalization happens in the HAL drivers' NextEvent, and
	// pkg/eventrouter forwards the resulting event unchanged; by the time an
	// event reaches a worker's queue it has already been classified, so the
	// worker only needs to know which entry point name to call. See
	// entrypoint.go for the mapping table.
	name, args := entryPointFor(ev)
	if name == "" {
		return
	}
	w.callEntryPoint(ctx, name, args...)
}
