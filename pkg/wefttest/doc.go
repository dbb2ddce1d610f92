// Package wefttest provides testing helpers for weft components.
//
// The package reduces boilerplate when testing components by providing a
// fluent harness builder and render assertions.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := wefttest.New(Counter).
//	        WithSchema(state.Schema{"count": {Type: state.TypeNumber}}).
//	        Mount(t)
//
//	    h.Set(t, "count", 3)
//	    h.Flush()
//	    wefttest.ExpectContains(t, h, "count=3")
//	}
//
// # Fluent Harness Builder
//
// The builder allows chaining multiple setup operations:
//
//	h := wefttest.New(Card).
//	    WithName("card").
//	    WithData("title", "Hello").
//	    WithSlot("footer", "<em>bye</em>").
//	    WithAttribute("id", "card-1").
//	    Mount(t)
//
// The harness owns a private loop and in-memory host. Nothing runs until
// Flush is called, so tests step through frames deterministically.
//
// # Render Assertions
//
// Assert on the live tree:
//
//	wefttest.ExpectContains(t, h, "Welcome")
//	wefttest.ExpectNotContains(t, h, "Error")
//	wefttest.ExpectElement(t, h, "button")
//	wefttest.ExpectAttribute(t, h, "class", "active")
//	wefttest.ExpectMutations(t, h, reconcile.OpSetText, 1)
package wefttest
