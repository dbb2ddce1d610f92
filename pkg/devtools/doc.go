// Package devtools serves a live inspector for weft components.
//
// An Inspector subscribes to the bus of every registered component and keeps
// the most recent events in a ring buffer. Each recorded event is also
// broadcast as JSON to connected WebSocket clients.
//
// # Routes
//
//	GET /tree       rendered HTML of the registered components
//	GET /tree.json  live trees as JSON
//	GET /events     recent events, oldest first
//	GET /ws         event stream
//	GET /metrics    Prometheus exposition
//
// Tree reads run on each component's loop via Loop.Call, so the loop must be
// running while the inspector serves requests.
//
// # Usage
//
//	insp := devtools.New(devtools.WithGatherer(registry))
//	insp.Register(app)
//	defer insp.Close()
//
//	srv := &http.Server{Addr: cfg.Devtools.Addr, Handler: insp.Router()}
//	go srv.ListenAndServe()
package devtools
