package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerDropsDuplicates(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32

	if !d.Do("movie:1", func() { calls.Add(1) }) {
		t.Fatal("first call should be accepted")
	}
	if d.Do("movie:1", func() { calls.Add(100) }) {
		t.Fatal("duplicate call should be dropped")
	}
	if !d.Do("movie:2", func() { calls.Add(1) }) {
		t.Fatal("other key should be accepted")
	}

	time.Sleep(80 * time.Millisecond)
	d.Flush()
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if d.Pending("movie:1") {
		t.Fatal("key should not be pending after firing")
	}
	if !d.Do("movie:1", func() { calls.Add(1) }) {
		t.Fatal("key should be accepted again after the window")
	}
	d.Flush()
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestDebouncerFlushRunsPending(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var ran atomic.Bool
	d.Do("k", func() { ran.Store(true) })
	d.Flush()
	if !ran.Load() {
		t.Fatal("Flush should run pending calls")
	}
	if d.Pending("k") {
		t.Fatal("Flush should clear pending keys")
	}
}
