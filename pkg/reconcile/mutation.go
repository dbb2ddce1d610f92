package reconcile

import (
	"fmt"

	"github.com/vango-dev/weft/pkg/bus"
	"github.com/vango-dev/weft/pkg/tree"
)

// Op is the type of a single mutation.
type Op uint8

const (
	OpSetText     Op = 0x01 // Update text content
	OpSetAttr     Op = 0x02 // Set/update attribute
	OpRemoveAttr  Op = 0x03 // Remove attribute
	OpInsertChild Op = 0x04 // Insert cloned child
	OpRemoveChild Op = 0x05 // Remove child
	OpMoveChild   Op = 0x06 // Move existing child to a new position
	OpReplace     Op = 0x07 // Replace subtree with a clone of the target
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpSetText:
		return "SetText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpInsertChild:
		return "InsertChild"
	case OpRemoveChild:
		return "RemoveChild"
	case OpMoveChild:
		return "MoveChild"
	case OpReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// Event returns the bus event name published for the op.
func (op Op) Event() string {
	switch op {
	case OpSetText:
		return bus.DOMText
	case OpSetAttr:
		return bus.DOMAttributeSet
	case OpRemoveAttr:
		return bus.DOMAttributeRemove
	case OpInsertChild:
		return bus.DOMChildAdd
	case OpRemoveChild:
		return bus.DOMChildRemove
	case OpMoveChild:
		return bus.DOMChildMove
	case OpReplace:
		return bus.DOMReplace
	default:
		return "dom.unknown"
	}
}

// Mutation describes one discrete change applied to the live tree.
type Mutation struct {
	Op     Op
	Parent *tree.Node // Parent of the affected child (child and replace ops)
	Node   *tree.Node // The affected live node; for OpInsertChild the inserted clone
	With   *tree.Node // OpReplace: the clone taking Node's place
	Name   string     // Attribute name
	Value  string     // New attribute value or text
	Old    string     // Previous attribute value or text
	Index  int        // Target position for insert/move, live position for remove
	From   int        // OpMoveChild: previous position
	Key    string     // Key of the affected child, if any
}

// String returns a one-line description of the mutation.
func (m Mutation) String() string {
	switch m.Op {
	case OpSetText:
		return fmt.Sprintf("%s %q -> %q", m.Op, m.Old, m.Value)
	case OpSetAttr:
		return fmt.Sprintf("%s <%s> %s=%q", m.Op, m.Node.Tag, m.Name, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("%s <%s> %s", m.Op, m.Node.Tag, m.Name)
	case OpInsertChild, OpRemoveChild:
		return fmt.Sprintf("%s %s at %d", m.Op, describe(m.Node), m.Index)
	case OpMoveChild:
		return fmt.Sprintf("%s %s %d -> %d", m.Op, describe(m.Node), m.From, m.Index)
	case OpReplace:
		return fmt.Sprintf("%s %s with %s", m.Op, describe(m.Node), describe(m.With))
	default:
		return m.Op.String()
	}
}

func describe(n *tree.Node) string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Kind == tree.KindText:
		return fmt.Sprintf("%q", n.Text)
	case n.Key != "":
		return fmt.Sprintf("<%s #%s>", n.Tag, n.Key)
	default:
		return fmt.Sprintf("<%s>", n.Tag)
	}
}

// Observer receives every mutation the Reconciler issues.
type Observer interface {
	Observe(m Mutation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(m Mutation)

// Observe implements Observer.
func (f ObserverFunc) Observe(m Mutation) {
	f(m)
}

// Recorder is an Observer that keeps every mutation it sees.
type Recorder struct {
	Mutations []Mutation
}

// Observe implements Observer.
func (r *Recorder) Observe(m Mutation) {
	r.Mutations = append(r.Mutations, m)
}

// Count returns the number of recorded mutations with the given op.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, m := range r.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Reset drops all recorded mutations.
func (r *Recorder) Reset() {
	r.Mutations = r.Mutations[:0]
}
