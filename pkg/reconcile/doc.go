// Package reconcile patches a live tree in place so that it matches a target
// tree.
//
// The Reconciler never rebuilds nodes whose shape matches: text nodes have
// their content updated, elements have their attributes and children diffed,
// and only incompatible shapes (text vs element, different tag, different
// key) are replaced by a deep clone of the target. This keeps the identity of
// live nodes stable, which focus handling, refs and the component node index
// depend on.
//
// # Children
//
// Child lists without keyed elements are patched positionally. As soon as
// either list holds a keyed element the keyed algorithm runs: live nodes are
// matched by key and moved into place with insert-before semantics, unmatched
// targets are cloned in and unmatched live nodes are removed. Unkeyed
// children inside a keyed list are matched by their ordinal among the
// unkeyed siblings.
//
// # Host and observers
//
// All mutations go through a Host (Insert, Remove, SetAttribute,
// RemoveAttribute, SetText). Every discrete mutation is reported to the
// registered observers before it is applied, so observers can still inspect
// the node that is about to change.
package reconcile
