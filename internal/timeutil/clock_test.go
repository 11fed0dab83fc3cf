package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("RealClock.Since() = %v, want >= 1s", d)
	}
}

func TestMockClock_Now(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("MockClock.Now() = %v, want %v", got, start)
	}
	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("MockClock without Step moved to %v", got)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	clock := NewMockClock(time.Time{})
	target := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	clock.Set(target)
	clock.Advance(90 * time.Second)
	if got, want := clock.Now(), target.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("after Set+Advance Now() = %v, want %v", got, want)
	}
}

func TestMockClock_Step(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.Step = time.Second

	first, second := clock.Now(), clock.Now()
	if second.Sub(first) != time.Second {
		t.Errorf("step between Now calls = %v, want 1s", second.Sub(first))
	}
	if d := clock.Since(start); d != 2*time.Second {
		t.Errorf("Since(start) = %v, want 2s", d)
	}
}
