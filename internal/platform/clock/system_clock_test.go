package clock

import (
	"testing"
	"time"
)

func TestSystemClock_UsesZone(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("PDT", -7*3600)
	now := NewSystemClock(loc).Now()
	if now.Location() != loc {
		t.Fatalf("location=%v, want %v", now.Location(), loc)
	}
	if d := time.Since(now); d < 0 || d > time.Minute {
		t.Fatalf("clock is off by %v", d)
	}
}

func TestSystemClock_DefaultsToLocal(t *testing.T) {
	t.Parallel()
	if got := NewSystemClock(nil).Now().Location(); got != time.Local {
		t.Fatalf("location=%v, want Local", got)
	}
}
