package uiloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type textRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *textRecorder) SetText(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *textRecorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := New(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func TestLoop_RunsPostedFunctionsInOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		if !loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}) {
			t.Fatalf("post %d rejected", i)
		}
	}
	loop.Call(func() {})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 50 {
		t.Fatalf("expected 50 calls, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
}

func TestLoop_DrainsQueueOnStop(t *testing.T) {
	loop := New(zerolog.Nop())
	ran := 0
	for i := 0; i < 3; i++ {
		loop.Post(func() { ran++ })
	}
	loop.Stop()

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ran != 3 {
		t.Fatalf("expected queued work to run, got %d", ran)
	}
	if loop.Post(func() {}) {
		t.Fatalf("post after stop should be rejected")
	}
	if loop.Call(func() {}) {
		t.Fatalf("call after stop should be rejected")
	}
}

func TestLoop_RecoversPanics(t *testing.T) {
	loop, _ := startLoop(t)

	loop.Post(func() { panic("boom") })
	called := false
	loop.Call(func() { called = true })

	if !called {
		t.Fatalf("loop should keep running after a panic")
	}
}

func TestLoop_RejectsSecondRun(t *testing.T) {
	loop, _ := startLoop(t)
	loop.Call(func() {})

	if err := loop.Run(context.Background()); err != ErrAlreadyRunning {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestLoop_StopsOnContextCancel(t *testing.T) {
	loop := New(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	cancel()
	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}

func TestSink_ForwardsOntoLoop(t *testing.T) {
	loop, _ := startLoop(t)
	recorder := &textRecorder{}

	s := Sink(loop, recorder)
	s.SetText("one")
	s.SetText("two")
	loop.Call(func() {})

	texts := recorder.Texts()
	if len(texts) != 2 || texts[0] != "one" || texts[1] != "two" {
		t.Fatalf("unexpected texts: %v", texts)
	}
}

func TestSink_FallsBackWhenStopped(t *testing.T) {
	loop := New(zerolog.Nop())
	loop.Stop()
	_ = loop.Run(context.Background())

	recorder := &textRecorder{}
	Sink(loop, recorder).SetText("late")
	if texts := recorder.Texts(); len(texts) != 1 || texts[0] != "late" {
		t.Fatalf("expected direct delivery after stop, got %v", recorder.Texts())
	}
}
