package debounce

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) fn(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestTriggerCoalesces(t *testing.T) {
	rec := newRecorder()
	d := New(30*time.Millisecond, rec.fn)
	defer d.Stop()

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}

	time.Sleep(60 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "abc" {
		t.Errorf("expected one call with the last value, got %v", calls)
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.fn)
	defer d.Stop()

	if d.Flush() {
		t.Error("flush with nothing pending should not call fn")
	}

	d.Trigger("now")
	if !d.Flush() {
		t.Fatal("flush should run the pending call")
	}
	if calls := rec.snapshot(); len(calls) != 1 || calls[0] != "now" {
		t.Errorf("unexpected calls %v", calls)
	}
	if d.Flush() {
		t.Error("second flush should be a no-op")
	}
}

func TestStopCancelsPending(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.fn)

	d.Trigger("x")
	d.Stop()
	d.Trigger("y")

	time.Sleep(60 * time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Errorf("stopped debouncer should not fire, got %v", calls)
	}
}

func TestDefaultDelay(t *testing.T) {
	d := New(0, func(int) {})
	defer d.Stop()
	if d.delay != DefaultDelay {
		t.Errorf("delay = %v, want %v", d.delay, DefaultDelay)
	}
}
