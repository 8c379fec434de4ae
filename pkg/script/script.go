// Package script hosts JavaScript evaluations against webhook payloads.
//
// Every evaluation gets its own goja runtime. The payload is bound to the
// global "body", the source is compiled and run, and the completion value is
// converted back into the JSON data model. The runtime is discarded
// afterwards whatever the outcome, so nothing a script does is visible to
// another evaluation.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/bridge"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/dop251/goja"
)

// BodyGlobal is the reserved global the payload is bound to.
const BodyGlobal = "body"

// ErrPanic marks failures caused by a panic inside the engine.
var ErrPanic = errors.New("evaluation panicked")

// Source is operator-supplied JavaScript. Name appears in stack traces.
type Source struct {
	Name string
	Code string
}

func NewSource(name string, code string) Source {
	if name == "" {
		name = "handler"
	}
	return Source{Name: name, Code: code}
}

// WithCode returns a copy of s with different code.
func (s Source) WithCode(code string) Source {
	s.Code = code
	return s
}

// Compile checks that the source is syntactically valid JavaScript. The
// compiled program is not kept.
func (s Source) Compile() error {
	if _, err := goja.Compile(s.Name, s.Code, false); err != nil {
		return errs.New(errs.KindCompile, err)
	}
	return nil
}

type Options struct {
	// Timeout interrupts an evaluation that runs longer. Zero disables it.
	Timeout time.Duration
	// MaxCallStackSize limits script recursion. Zero keeps goja's default.
	MaxCallStackSize int
}

// Host evaluates sources in fresh, isolated runtimes. A Host holds no
// per-evaluation state and is safe for concurrent use; each call to Evaluate
// confines its runtime to the calling goroutine.
type Host struct {
	opts Options
}

func NewHost(opts Options) *Host {
	return &Host{opts: opts}
}

// Evaluate runs source against payload and returns the completion value in
// the JSON data model. Failures are *errs.Error of kind injection, compile,
// runtime or serialization. A panic is reported as an error of the kind of
// the step it happened in.
//
// Cancelling ctx interrupts a running script.
func (h *Host) Evaluate(ctx context.Context, payload any, source Source) (result any, err error) {
	step := errs.KindInjection
	defer recoverAs(&step, &err)

	c, err := newContext(h.opts)
	if err != nil {
		return nil, errs.New(errs.KindInjection, err)
	}
	defer c.Close()

	if err := c.Bind(BodyGlobal, payload); err != nil {
		return nil, err
	}

	step = errs.KindRuntime
	value, err := c.Run(ctx, source, h.opts.Timeout)
	if err != nil {
		return nil, err
	}

	step = errs.KindSerialization
	return c.Extract(value)
}

// recoverAs turns a panic into an error of kind *step. It must be deferred.
func recoverAs(step *errs.Kind, err *error) {
	r := recover()
	if r == nil {
		return
	}
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}
	*err = errs.New(*step, fmt.Errorf("%w: %w", ErrPanic, cause))
}

// Context is a single-use scripting environment.
type Context struct {
	vm     *goja.Runtime
	bridge *bridge.Bridge
}

func newContext(opts Options) (*Context, error) {
	vm := goja.New()
	if opts.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(opts.MaxCallStackSize)
	}
	b, err := bridge.New(vm)
	if err != nil {
		return nil, err
	}
	return &Context{vm: vm, bridge: b}, nil
}

// Bind converts value and defines it as a read-only global.
func (c *Context) Bind(name string, value any) error {
	v, err := c.bridge.ToEngine(value)
	if err != nil {
		return errs.New(errs.KindInjection, err)
	}
	err = c.vm.GlobalObject().DefineDataProperty(name, v, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	if err != nil {
		return errs.New(errs.KindInjection, err)
	}
	return nil
}

// Run compiles and runs source. The runtime is interrupted when ctx is done
// or timeout elapses.
func (c *Context) Run(ctx context.Context, source Source, timeout time.Duration) (goja.Value, error) {
	program, err := goja.Compile(source.Name, source.Code, false)
	if err != nil {
		return nil, errs.New(errs.KindCompile, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.New(errs.KindRuntime, err)
	}

	stop := c.watch(ctx, timeout)
	value, err := c.vm.RunProgram(program)
	stop()
	if err != nil {
		return nil, runtimeError(err)
	}
	return value, nil
}

// watch arranges for the runtime to be interrupted. The returned function
// disarms it and clears any interrupt that raced with completion, so that
// extraction afterwards is unaffected.
func (c *Context) watch(ctx context.Context, timeout time.Duration) func() {
	var (
		mux      sync.Mutex
		finished bool
	)
	interrupt := func(v any) {
		mux.Lock()
		defer mux.Unlock()
		if !finished {
			c.vm.Interrupt(v)
		}
	}

	stopCtx := context.AfterFunc(ctx, func() { interrupt(ctx.Err()) })
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() { interrupt(errs.ErrTimeout) })
	}

	return func() {
		mux.Lock()
		finished = true
		mux.Unlock()
		stopCtx()
		if timer != nil {
			timer.Stop()
		}
		c.vm.ClearInterrupt()
	}
}

// Extract converts a completion value back into the JSON data model.
func (c *Context) Extract(value goja.Value) (any, error) {
	v, err := c.bridge.FromEngine(value)
	if err != nil {
		return nil, errs.New(errs.KindSerialization, err)
	}
	return v, nil
}

// Close drops the runtime. The Context must not be used afterwards.
func (c *Context) Close() {
	c.vm = nil
	c.bridge = nil
}

func runtimeError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return errs.New(errs.KindRuntime, cause)
		}
	}
	return errs.New(errs.KindRuntime, err)
}
