package timex

import (
	"testing"
	"time"
)

func TestResetAndDrainTimer(t *testing.T) {
	tm := StoppedTimer()
	select {
	case <-tm.C:
		t.Fatal("stopped timer fired")
	default:
	}
	// Reset to near-zero and ensure it fires quickly.
	ResetTimer(tm, 1*time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timer did not fire after ResetTimer")
	}
	// Negative reset clamps to zero and should fire immediately.
	ResetTimer(tm, -1)
	select {
	case <-tm.C:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timer did not fire after negative ResetTimer")
	}
}
