package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopPostRunsBeforeFrames(t *testing.T) {
	l := NewLoop()
	var order []string

	l.RequestFrame(func() { order = append(order, "frame") })
	l.Post(func() { order = append(order, "task") })

	if n := l.Flush(); n != 2 {
		t.Fatalf("Flush() ran %d callbacks, want 2", n)
	}
	if len(order) != 2 || order[0] != "task" || order[1] != "frame" {
		t.Errorf("order = %v, want [task frame]", order)
	}
}

func TestLoopFrameRequestedDuringFlushWaits(t *testing.T) {
	l := NewLoop()
	runs := 0
	var again func()
	again = func() {
		runs++
		l.RequestFrame(again)
	}
	l.RequestFrame(again)

	l.Flush()
	if runs != 1 {
		t.Fatalf("runs after first flush = %d, want 1", runs)
	}
	if l.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", l.Pending())
	}
	l.Flush()
	if runs != 2 {
		t.Errorf("runs after second flush = %d, want 2", runs)
	}
}

func TestLoopCancelFrame(t *testing.T) {
	l := NewLoop()
	ran := false
	h := l.RequestFrame(func() { ran = true })

	if !l.CancelFrame(h) {
		t.Fatal("CancelFrame() = false for pending frame")
	}
	if l.CancelFrame(h) {
		t.Error("second CancelFrame() = true, want false")
	}
	l.Flush()
	if ran {
		t.Error("cancelled frame ran")
	}
}

func TestLoopCancelFrameDuringFlush(t *testing.T) {
	l := NewLoop()
	ran := false
	var second Handle
	l.RequestFrame(func() {
		if !l.CancelFrame(second) {
			t.Error("CancelFrame() inside flush = false")
		}
	})
	second = l.RequestFrame(func() { ran = true })

	l.Flush()
	if ran {
		t.Error("frame cancelled by an earlier callback still ran")
	}
}

func TestLoopDrain(t *testing.T) {
	l := NewLoop()
	count := 0
	var step func()
	step = func() {
		count++
		if count < 3 {
			l.RequestFrame(step)
		}
	}
	l.RequestFrame(step)

	if frames := l.Drain(10); frames != 3 {
		t.Errorf("Drain() = %d frames, want 3", frames)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if l.Frame() != 3 {
		t.Errorf("Frame() = %d, want 3", l.Frame())
	}
}

func TestLoopPostConcurrent(t *testing.T) {
	l := NewLoop()
	var wg sync.WaitGroup
	count := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { count++ })
		}()
	}
	wg.Wait()
	l.Flush()
	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}

func TestLoopRunAndCall(t *testing.T) {
	l := NewLoop(WithFrameInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	value := 0
	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	if err := l.Call(callCtx, func() { value = 42 }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if value != 42 {
		t.Errorf("value = %d, want 42", value)
	}

	frameRan := make(chan struct{})
	if err := l.Call(callCtx, func() {
		l.RequestFrame(func() { close(frameRan) })
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	select {
	case <-frameRan:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback did not run")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
