package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(time.Minute, 2)
	l.now = func() time.Time { return now }

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("first hit should be allowed")
	}
	now = now.Add(10 * time.Second)
	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("second hit should be allowed")
	}

	ok, retry := l.Allow("a")
	if ok {
		t.Fatal("third hit should be rejected")
	}
	if retry != 50*time.Second {
		t.Errorf("retry after = %v, want 50s", retry)
	}

	if ok, _ := l.Allow("b"); !ok {
		t.Error("other keys should not be affected")
	}

	now = now.Add(51 * time.Second)
	if ok, _ := l.Allow("a"); !ok {
		t.Error("hit should be allowed once the window slides")
	}
}

func TestLimiterZeroBudget(t *testing.T) {
	l := NewLimiter(time.Minute, 0)

	ok, retry := l.Allow("a")
	if ok {
		t.Fatal("zero budget must reject")
	}
	if retry != time.Minute {
		t.Errorf("retry after = %v, want 1m", retry)
	}
}
