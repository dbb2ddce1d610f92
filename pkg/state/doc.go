// Package state provides the reactive state store owned by each component.
//
// A Store maps declared keys to values. Reads performed while a render pass
// is active are recorded in the tracked set; only a change to a tracked key
// invalidates the component. Changes to untracked keys are stored silently and
// become visible the next time the component renders for another reason.
//
//	s := state.New()
//	s.Define(state.Schema{
//	    "count": {Type: state.TypeNumber},
//	    "items": {Type: state.TypeArray},
//	    "label": {Computed: func(r state.Reader) any {
//	        return fmt.Sprintf("count=%v", r.Get("count"))
//	    }},
//	})
//
//	s.BeginRender()
//	_ = s.Get("label") // tracks "label"
//	s.EndRender()
//
// Computed accessors are evaluated on every read and never cached.
package state
