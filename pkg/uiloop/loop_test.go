package uiloop

import (
	"testing"
	"time"
)

func TestTasksRunSeriallyOnLoopGoroutine(t *testing.T) {
	l := New()
	go l.Run()
	defer l.Stop()

	results := make(chan int, 3)
	for i := 0; i < 3; i++ {
		n := i
		if !l.Post(func() { results <- n }) {
			t.Fatal("Post failed on a running loop")
		}
	}
	for want := 0; want < 3; want++ {
		select {
		case got := <-results:
			if got != want {
				t.Errorf("Task order: got %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("Task did not run")
		}
	}
}

func TestPostDelayed(t *testing.T) {
	l := New()
	go l.Run()
	defer l.Stop()

	done := make(chan struct{})
	start := time.Now()
	if !l.PostDelayed(20*time.Millisecond, func() { close(done) }) {
		t.Fatal("PostDelayed failed on a running loop")
	}
	select {
	case <-done:
		if time.Since(start) < 20*time.Millisecond {
			t.Error("Callback ran before its delay")
		}
	case <-time.After(time.Second):
		t.Fatal("Delayed callback did not run")
	}
}

func TestStopRejectsNewWork(t *testing.T) {
	l := New()
	go l.Run()

	l.Stop()
	l.Stop() // idempotent

	if l.Post(func() {}) {
		t.Error("Post succeeded after Stop")
	}
	if l.PostDelayed(time.Millisecond, func() {}) {
		t.Error("PostDelayed succeeded after Stop")
	}
}
