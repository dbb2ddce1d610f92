package component

import (
	stderrors "errors"

	"github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/lifecycle"
	"github.com/vango-dev/weft/pkg/state"
)

// Define declares state keys. Keys already declared keep their value.
func (c *Context) Define(schema state.Schema) {
	c.state.Define(schema)
}

// Get returns a state value. Reads during a render pass are tracked.
func (c *Context) Get(key string) any {
	return c.state.Get(key)
}

// Set writes a state value. Changing a key read during the last render
// schedules a reload while the context is attached. A value of the wrong
// type is routed to the error phase.
func (c *Context) Set(key string, value any) error {
	err := c.state.Set(key, value)
	if errors.CodeOf(err) == errors.CodeInvalidStateValue {
		return c.fail(err)
	}
	return err
}

// SetState writes several keys in key order.
func (c *Context) SetState(values map[string]any) error {
	var errs []error
	for _, k := range sortedKeys(values) {
		if err := c.Set(k, values[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// GetState returns every declared key without tracking.
func (c *Context) GetState() map[string]any {
	return c.state.Snapshot()
}

// Tracked returns the keys read during the last render pass.
func (c *Context) Tracked() []string {
	return c.state.Tracked()
}

// Defined returns the declared keys.
func (c *Context) Defined() []string {
	return c.state.Keys()
}

// State returns the underlying store.
func (c *Context) State() *state.Store {
	return c.state
}

func (c *Context) changed(ch state.Change) {
	if err := c.hooks.Emit(lifecycle.Change, ch.Key, ch.Value, ch.Old); err != nil {
		c.logger.Error("change handler failed", "key", ch.Key, "error", err)
	}
}

func (c *Context) invalidated(key string) {
	if !c.attached {
		return
	}
	c.logger.Debug("tracked key changed", "key", key)
	c.RequestReload()
}

// On registers a lifecycle handler. Handlers for init, mount, mounted and
// ready registered after the phase has fired run immediately.
func (c *Context) On(phase lifecycle.Phase, fn lifecycle.Handler) (lifecycle.Subscription, error) {
	return c.hooks.On(phase, fn)
}

// Once registers a handler that runs at most once.
func (c *Context) Once(phase lifecycle.Phase, fn lifecycle.Handler) (lifecycle.Subscription, error) {
	return c.hooks.Once(phase, fn)
}

// Off removes a handler.
func (c *Context) Off(phase lifecycle.Phase, sub lifecycle.Subscription) bool {
	return c.hooks.Off(phase, sub)
}

// Emit fires a lifecycle phase. Handler errors are returned unmodified.
func (c *Context) Emit(phase lifecycle.Phase, args ...any) error {
	return c.hooks.Emit(phase, args...)
}
