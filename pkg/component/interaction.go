package component

import (
	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/preserve"
)

// snapshot captures focus, scroll and form state before a reload. It
// returns nil when the host has no interaction state.
func (c *Context) snapshot() *preserve.Blob {
	if c.surface == nil || c.root == nil {
		return nil
	}
	blob := c.preserver.Snapshot(c.surface, c.root)
	c.bus.Emit(bus.DOMStatePreserve, c, blob)
	return blob
}

func (c *Context) restore(blob *preserve.Blob) {
	if blob == nil || c.root == nil {
		return
	}
	report := c.preserver.Restore(c.surface, c.root, blob)
	if report.Skipped > 0 {
		c.logger.Debug("interaction state partially restored",
			"restored", report.Restored, "skipped", report.Skipped)
	}
	c.bus.Emit(bus.DOMStateRestore, c, blob, report)
}
