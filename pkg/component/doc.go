// Package component implements the render context: the object that owns a
// component's state, lifecycle, live tree and scheduled reloads.
//
// A component is a RenderFunc returning markup. The context compiles that
// markup into a tree, mounts it into a host, and re-renders whenever a state
// key read during the last render changes:
//
//	loop := scheduler.NewLoop()
//	c := component.New("counter", func(c *component.Context) (string, error) {
//	    return fmt.Sprintf("<p>count=%v</p>", c.Get("count")), nil
//	}, component.WithLoop(loop))
//
//	c.Define(state.Schema{"count": {Type: state.TypeNumber}})
//	if err := c.Render(); err != nil { ... }
//	if err := c.Mount(target); err != nil { ... }
//
//	c.Set("count", 1) // schedules one reload for the next frame
//	loop.Flush()
//
// Reloads are deferred to the next frame of the Loop and coalesced, so any
// number of writes within one tick produce a single reconciliation pass.
//
// # Threading
//
// A Context is not safe for concurrent use. Everything except Loop.Post runs
// on the loop goroutine; timers and store subscriptions post back onto it.
//
// # Composition
//
// Child creates a child context. The parent's render callback inlines it
// with Include. Child contexts never reconcile on their own: their reload
// requests are forwarded to the root-most ancestor, which re-renders the
// whole tree in one pass.
package component
