package component

import (
	"context"
	"fmt"
	"time"

	"github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/lifecycle"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/telemetry"
	"github.com/vango-dev/weft/pkg/tree"
)

// Render runs the first render pass: it emits init, renders and compiles
// the tree. Calling it again before Mount recompiles. Errors are routed to
// the error phase.
func (c *Context) Render() error {
	if c.Destroyed() {
		return nil
	}
	if c.parent != nil {
		return errors.New(errors.CodeMountPrecondition).
			WithDetailf("%s is a child context; its parent renders it with Include", c.name)
	}
	if c.attached {
		return c.Reload()
	}
	if err := c.hooks.Emit(lifecycle.Init); err != nil {
		return err
	}

	target, err := c.renderTree()
	if err != nil {
		return c.fail(err)
	}
	c.root = target
	c.resolve()
	return nil
}

// Mount inserts the live tree into target. It fails with MountPrecondition
// when nothing is compiled, when the context is already attached, or when
// the context is a child.
func (c *Context) Mount(target *tree.Node) error {
	switch {
	case c.Destroyed():
		return errors.New(errors.CodeMountPrecondition).WithDetail("context is destroyed")
	case c.parent != nil:
		return errors.New(errors.CodeMountPrecondition).
			WithDetailf("%s is a child context; it mounts with its parent", c.name)
	case c.root == nil:
		return errors.New(errors.CodeMountPrecondition).WithDetail("nothing compiled; call Render first")
	case c.attached:
		return errors.New(errors.CodeMountPrecondition).WithDetail("already mounted")
	case target == nil:
		return errors.New(errors.CodeMountPrecondition).WithDetail("mount target is nil")
	}

	if err := c.hooks.Emit(lifecycle.BeforeMount, target); err != nil {
		return err
	}
	c.host.Insert(target, c.root, nil)
	c.target = target
	c.attached = true
	c.logger.Debug("mounted")

	if err := c.hooks.Emit(lifecycle.Mount, target); err != nil {
		return err
	}
	if err := c.hooks.Emit(lifecycle.Mounted, target); err != nil {
		return err
	}
	if err := c.attachChildren(); err != nil {
		return err
	}
	c.bus.Emit(bus.ComponentMount, c)
	return nil
}

// Unmount removes the live tree from its host. The context keeps its state
// and may be mounted again.
func (c *Context) Unmount() error {
	if !c.attached {
		return nil
	}
	if c.parent != nil {
		return errors.New(errors.CodeMountPrecondition).
			WithDetailf("%s is a child context; it unmounts with its parent", c.name)
	}
	return c.detach(true)
}

func (c *Context) detach(remove bool) error {
	if err := c.hooks.Emit(lifecycle.BeforeUnmount); err != nil {
		return err
	}
	for _, child := range c.children {
		if child.attached {
			if err := child.detach(false); err != nil {
				return err
			}
		}
	}
	if remove && c.root != nil {
		if parent := c.root.Parent(); parent != nil {
			c.host.Remove(parent, c.root)
		}
	}
	c.attached = false
	c.target = nil
	c.sched.Cancel()

	if err := c.hooks.Emit(lifecycle.Unmount); err != nil {
		return err
	}
	c.bus.Emit(bus.ComponentUnmount, c)
	c.logger.Debug("unmounted")
	return nil
}

// Destroy unmounts the context, destroys its children and releases every
// timer, observer and store connection. A failing hook does not stop the
// release; the first error is returned. Calling it again does nothing.
func (c *Context) Destroy() error {
	if c.Destroyed() {
		return nil
	}
	var first error
	if c.attached {
		if err := c.detach(c.parent == nil); err != nil {
			first = err
			c.forceDetach()
		}
	}
	for _, child := range c.children {
		if err := child.Destroy(); err != nil && first == nil {
			first = err
		}
	}
	if err := c.hooks.Emit(lifecycle.Destroy); err != nil && first == nil {
		first = err
	}
	return first
}

// forceDetach takes the live tree out of the host without running hooks.
func (c *Context) forceDetach() {
	if c.parent == nil && c.root != nil {
		if parent := c.root.Parent(); parent != nil {
			c.host.Remove(parent, c.root)
		}
	}
	c.attached = false
	c.target = nil
	c.sched.Cancel()
}

// cleanup runs once, after the destroy handlers.
func (c *Context) cleanup() {
	c.sched.Cancel()
	for id, t := range c.timers {
		t.stop()
		delete(c.timers, id)
	}
	for _, w := range c.watchers {
		w.Disconnect()
	}
	c.watchers = nil
	for name, conn := range c.connections {
		conn.close()
		delete(c.connections, name)
	}
	c.root = nil
	c.nodes = nil
	c.refs = nil
	c.refPaths = nil
	c.slots = make(map[string]string)
	c.bus.Emit(bus.ComponentDestroy, c)
	c.logger.Debug("destroyed")
}

// RequestReload schedules one reload of the root-most ancestor for the next
// frame. Further requests before that frame are coalesced.
func (c *Context) RequestReload() bool {
	root := c.Root()
	if root.Destroyed() {
		return false
	}
	return root.sched.Request(func() {
		if err := root.Reload(); err != nil {
			root.logger.Error("reload failed", "error", err)
		}
	})
}

// Reload re-renders synchronously and patches the live tree. Errors, panics
// in the render callback included, are routed to the error phase; with no
// error handler they are returned.
func (c *Context) Reload() error {
	if c.Destroyed() {
		return nil
	}
	if err := c.sched.Enter(); err != nil {
		c.logger.Warn("reload depth exceeded", "limit", c.sched.MaxDepth())
		return c.fail(err)
	}
	if !c.attached {
		c.sched.Leave(false)
		return nil
	}
	if c.parent != nil {
		c.sched.Leave(false)
		return c.Root().Reload()
	}

	start := time.Now()
	_, span := c.tracer.StartReload(context.Background(), c.name, c.sched.Depth())
	before := c.reconciler.Count()

	err := c.update()

	span.AddMutations(c.reconciler.Count() - before)
	span.End(err)
	c.sched.Leave(err == nil)

	if err != nil {
		c.metrics.ObserveReload(time.Since(start), telemetry.StatusError)
		return c.fail(err)
	}
	c.reloads++
	c.metrics.ObserveReload(time.Since(start), telemetry.StatusOK)
	return nil
}

// update is one reconciliation pass.
func (c *Context) update() error {
	if err := c.hooks.Emit(lifecycle.BeforeUpdate); err != nil {
		return err
	}
	blob := c.snapshot()

	target, err := c.renderTree()
	if err != nil {
		return err
	}
	c.root = c.reconciler.Patch(c.root, target)
	c.resolve()
	c.restore(blob)

	if err := c.syncChildren(); err != nil {
		return err
	}
	if err := c.hooks.Emit(lifecycle.Update); err != nil {
		return err
	}
	c.bus.Emit(bus.ComponentUpdate, c)
	return nil
}

// fail routes err to the error phase.
func (c *Context) fail(err error) error {
	c.bus.Emit(bus.ComponentError, c, err)
	if c.hooks.Count(lifecycle.Error) == 0 {
		c.logger.Error("component error", "error", err)
	}
	return c.hooks.Emit(lifecycle.Error, err)
}

// Include renders child and returns its markup for inlining into the
// current render. child must have been created with Child on c.
func (c *Context) Include(child *Context) (string, error) {
	if child == nil || child.parent != c {
		return "", errors.New(errors.CodeMountPrecondition).
			WithDetail("Include requires a child created with Child")
	}
	if child.Destroyed() {
		return "", nil
	}
	if err := child.hooks.Emit(lifecycle.Init); err != nil {
		return "", err
	}
	target, err := child.renderTree()
	if err != nil {
		return "", err
	}
	c.included[child] = true
	return markup.Render(target, child.markupOptions())
}

// renderTree runs the render callback and compiles its markup.
func (c *Context) renderTree() (*tree.Node, error) {
	clear(c.included)
	html, err := c.renderMarkup()
	if err != nil {
		return nil, err
	}
	c.html = html
	if err := c.hooks.Emit(lifecycle.Render, html); err != nil {
		return nil, err
	}
	target, err := c.compile(html)
	if err != nil {
		return nil, err
	}
	if err := c.hooks.Emit(lifecycle.Compile, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (c *Context) renderMarkup() (html string, err error) {
	c.state.BeginRender()
	defer c.state.EndRender()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeRenderFailed).
				WithDetailf("%s: panic: %v", c.name, r).
				WithField("component", c.name)
		}
	}()

	if c.render == nil {
		return "", nil
	}
	html, err = c.render(c)
	if err != nil {
		return "", errors.New(errors.CodeRenderFailed).
			WithDetail(c.name).
			WithField("component", c.name).
			Wrap(err)
	}
	return html, nil
}

func (c *Context) markupOptions() markup.Options {
	return markup.Options{
		WrapperTag:   c.config.WrapperTag,
		KeyAttribute: c.config.KeyAttribute,
	}
}

// compile parses html into a wrapper element carrying the component's
// attributes and scope class, and records ref paths.
func (c *Context) compile(html string) (*tree.Node, error) {
	start := time.Now()
	root, err := markup.Compile(html, c.markupOptions())
	if err != nil {
		return nil, errors.New(errors.CodeRenderFailed).
			WithDetailf("%s: compile", c.name).
			Wrap(err)
	}

	for k, v := range c.attributes {
		root.SetAttr(k, v)
	}
	root.SetAttr("class", Classes(root.Attrs["class"], c.scope))
	if c.parent != nil {
		root.SetAttr(ChildAttribute, c.id)
	}

	c.bus.Emit(bus.CompileBefore, c, root)

	refs := make(map[string][]int)
	refAttr := c.config.RefAttribute
	root.Walk(func(n *tree.Node, _ int) bool {
		if !n.IsElement() {
			return true
		}
		// Included children keep their refs to themselves.
		if n != root {
			if _, ok := n.Attr(ChildAttribute); ok {
				return false
			}
		}
		if name, ok := n.Attr(refAttr); ok {
			n.RemoveAttr(refAttr)
			if path, ok := tree.PathTo(root, n); ok {
				refs[name] = path
			}
		}
		return true
	})
	c.refPaths = refs

	if c.bus.Has(bus.CompileNode) {
		tree.IndexFunc(root, func(id string, n *tree.Node) {
			c.bus.Emit(bus.CompileNode, c, n, id)
		})
	}
	c.bus.Emit(bus.CompileAfter, c, root)

	c.logger.Debug("compiled", "duration", time.Since(start))
	return root, nil
}

// resolve rebuilds the node index and refs against the live tree. The live
// tree is structurally equal to the compiled target, so ref paths recorded
// at compile time resolve to the matching live elements.
func (c *Context) resolve() {
	c.nodes = tree.Index(c.root)
	c.refs = make(map[string]*tree.Node, len(c.refPaths))
	for name, path := range c.refPaths {
		if n := tree.AtPath(c.root, path); n != nil {
			c.refs[name] = n
		}
	}
	for _, child := range c.children {
		child.root = nil
		if !c.included[child] || c.root == nil {
			continue
		}
		child.root = tree.Find(c.root, func(n *tree.Node) bool {
			v, ok := n.Attr(ChildAttribute)
			return ok && v == child.id
		})
		child.resolve()
	}
}

// attachChildren mounts every included child that is not attached yet.
func (c *Context) attachChildren() error {
	for _, child := range c.children {
		if child.attached || !c.included[child] || child.Destroyed() {
			continue
		}
		if err := child.hooks.Emit(lifecycle.BeforeMount, c.root); err != nil {
			return err
		}
		child.attached = true
		child.target = c.root
		if err := child.hooks.Emit(lifecycle.Mount, c.root); err != nil {
			return err
		}
		if err := child.hooks.Emit(lifecycle.Mounted, c.root); err != nil {
			return err
		}
		if err := child.attachChildren(); err != nil {
			return err
		}
		c.bus.Emit(bus.ComponentMount, child)
	}
	return nil
}

// syncChildren attaches children that entered the tree in the last pass and
// detaches the ones that left it.
func (c *Context) syncChildren() error {
	for _, child := range c.children {
		if child.attached && !c.included[child] {
			if err := child.detach(false); err != nil {
				return err
			}
			continue
		}
		if child.attached {
			if err := child.syncChildren(); err != nil {
				return err
			}
		}
	}
	return c.attachChildren()
}

// String implements fmt.Stringer.
func (c *Context) String() string {
	return fmt.Sprintf("component(%s#%s)", c.name, c.id)
}
