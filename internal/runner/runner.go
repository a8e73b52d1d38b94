package runner

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/tbessias/modkit/internal/registry"
)

// RuntimeError reports a user plugin that threw (or panicked) during
// execution. It is always recovered by the caller and logged with the
// plugin's name attached, never propagated.
type RuntimeError struct {
	Plugin string
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("plugin %q: %v", e.Plugin, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Runner executes module and plugin JavaScript. Modules share one
// persistent interpreter so they can build on each other's registrations;
// each user plugin gets a fresh interpreter so a broken plugin cannot
// poison anything else.
type Runner struct {
	vm      *goja.Runtime
	execCh  chan struct{}
	reg     *registry.Registry
	timeout time.Duration
}

// New creates a Runner bound to the given registry.
func New(reg *registry.Registry, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Runner{
		vm:      goja.New(),
		execCh:  make(chan struct{}, 1),
		reg:     reg,
		timeout: timeout,
	}
	installHostAPI(r.vm, reg)
	return r
}

// installHostAPI exposes the shared namespace and a few utilities to a VM.
// Modules self-register through modkit.register; consumers look members
// up lazily through modkit.lookup rather than capturing them at load
// time, so registration order within a load group does not matter.
func installHostAPI(vm *goja.Runtime, reg *registry.Registry) {
	host := vm.NewObject()
	host.Set("register", func(name string, value goja.Value) {
		reg.Register(name, value.Export())
	})
	host.Set("lookup", func(name string) any {
		v, ok := reg.Lookup(name)
		if !ok {
			return nil
		}
		return v
	})
	host.Set("members", func() []string {
		return reg.Names()
	})
	vm.Set("modkit", host)

	vm.Set("sprintf", fmt.Sprintf)
	vm.Set("printf", fmt.Printf)
	vm.Set("println", fmt.Println)
}

// RunModule executes module source in the shared interpreter. Module
// executions are serialized: the interpreter is not safe for concurrent
// use even though module fetches happen in parallel.
func (r *Runner) RunModule(name, src string) error {
	r.execCh <- struct{}{}
	defer func() { <-r.execCh }()

	timer := time.AfterFunc(r.timeout, func() {
		r.vm.Interrupt("module execution timed out")
	})
	defer timer.Stop()
	defer r.vm.ClearInterrupt()

	if _, err := r.vm.RunScript(name, src); err != nil {
		return fmt.Errorf("running module %s: %w", name, err)
	}
	return nil
}

// RunPlugin executes user plugin code in a fresh interpreter. A thrown
// exception, an interpreter panic, or a timeout all come back as a
// *RuntimeError so one plugin's failure cannot stop the rest.
func (r *Runner) RunPlugin(name, src string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &RuntimeError{Plugin: name, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	vm := goja.New()
	installHostAPI(vm, r.reg)

	timer := time.AfterFunc(r.timeout, func() {
		vm.Interrupt("plugin execution timed out")
	})
	defer timer.Stop()

	if _, runErr := vm.RunScript(name, src); runErr != nil {
		return &RuntimeError{Plugin: name, Err: runErr}
	}
	return nil
}
