package models

import (
	"sync"
	"testing"
	"time"
)

func TestCancelSignal_SetOnce(t *testing.T) {
	sig := NewCancelSignal()

	if sig.IsCancelled() {
		t.Fatal("New signal should not be cancelled")
	}

	select {
	case <-sig.Done():
		t.Fatal("Done channel should block before Cancel")
	default:
	}

	sig.Cancel()
	sig.Cancel() // second call must not panic on closed channel

	if !sig.IsCancelled() {
		t.Error("Signal should be cancelled after Cancel")
	}

	select {
	case <-sig.Done():
	case <-time.After(time.Second):
		t.Error("Done channel should be closed after Cancel")
	}
}

func TestCancelSignal_ZeroValue(t *testing.T) {
	var sig CancelSignal

	done := sig.Done()
	select {
	case <-done:
		t.Fatal("Done channel should block before Cancel")
	default:
	}

	sig.Cancel()

	if !sig.IsCancelled() {
		t.Error("Zero-value signal should be cancelled after Cancel")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Channel returned before Cancel should be closed")
	}
}

func TestCancelSignal_ConcurrentCancel(t *testing.T) {
	sig := NewCancelSignal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.Cancel()
		}()
	}
	wg.Wait()

	if !sig.IsCancelled() {
		t.Error("Signal should be cancelled")
	}
}

func TestCancelSignal_Nil(t *testing.T) {
	var sig *CancelSignal

	sig.Cancel()
	if sig.IsCancelled() {
		t.Error("nil signal should never report cancelled")
	}
	if sig.Done() != nil {
		t.Error("nil signal should return a nil Done channel")
	}
}
