// Package scheduler provides the single logical thread that components run
// on and the per-component reload scheduler.
//
// Loop owns the thread. Work reaches it two ways: Post queues a task from
// any goroutine, and RequestFrame queues a callback for the next frame.
// Flush runs the posted tasks and then every frame callback queued before
// the flush started; callbacks requested while a frame runs wait for the
// next one. Run drives Flush from a ticker.
//
// Scheduler coalesces reload requests into at most one pending frame and
// guards reload chains with a depth counter:
//
//	if !s.Request(c.Reload) {
//	    // already pending this frame
//	}
//
//	if err := s.Enter(); err != nil {
//	    // ReloadDepthExceeded; depth has been reset
//	}
//	defer s.Leave()
package scheduler
