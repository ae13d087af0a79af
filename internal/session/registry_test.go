package session

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_StartAndGet(t *testing.T) {
	r := NewRegistry()
	s := r.Start("u1", KindAdd, time.Minute, nil, nil)

	got, ok := r.Get("u1", KindAdd, s.Token)
	if !ok || got != s {
		t.Fatalf("Get() = %v, %v, want started session", got, ok)
	}
	if _, ok := r.Get("u1", KindRemove, s.Token); ok {
		t.Fatal("Get() with wrong kind should miss")
	}
	if _, ok := r.Get("u1", KindAdd, "stale"); ok {
		t.Fatal("Get() with wrong token should miss")
	}
	if _, ok := r.Get("u2", KindAdd, s.Token); ok {
		t.Fatal("Get() for another user should miss")
	}
}

func TestRegistry_StartReplacesPrevious(t *testing.T) {
	r := NewRegistry()
	var expired atomic.Int32
	first := r.Start("u1", KindAdd, 20*time.Millisecond, nil, func(*Session) { expired.Add(1) })
	second := r.Start("u1", KindRemove, time.Minute, nil, nil)

	if first.Token == second.Token {
		t.Fatal("tokens should differ between sessions")
	}
	if !first.Ended() {
		t.Fatal("previous session should be ended")
	}
	if _, ok := r.Get("u1", KindAdd, first.Token); ok {
		t.Fatal("replaced session still reachable")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	time.Sleep(60 * time.Millisecond)
	if n := expired.Load(); n != 0 {
		t.Fatalf("replaced session expiry fired %d times, want 0", n)
	}
}

func TestRegistry_ExpiryFiresOnce(t *testing.T) {
	r := NewRegistry()
	fired := make(chan *Session, 2)
	s := r.Start("u1", KindAdd, 10*time.Millisecond, "origin", func(s *Session) { fired <- s })

	select {
	case got := <-fired:
		if got != s || got.Origin != "origin" {
			t.Fatalf("expired session = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("expiry did not fire")
	}
	if _, ok := r.Get("u1", KindAdd, s.Token); ok {
		t.Fatal("expired session still reachable")
	}
	select {
	case <-fired:
		t.Fatal("expiry fired twice")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestRegistry_EndSuppressesExpiry(t *testing.T) {
	r := NewRegistry()
	var expired atomic.Int32
	s := r.Start("u1", KindLearning, 10*time.Millisecond, nil, func(*Session) { expired.Add(1) })
	r.End(s)

	time.Sleep(40 * time.Millisecond)
	if expired.Load() != 0 {
		t.Fatal("ended session expired")
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_EndOfReplacedSessionKeepsCurrent(t *testing.T) {
	r := NewRegistry()
	old := r.Start("u1", KindAdd, time.Minute, nil, nil)
	cur := r.Start("u1", KindAdd, time.Minute, nil, nil)
	r.End(old)

	if _, ok := r.Get("u1", KindAdd, cur.Token); !ok {
		t.Fatal("ending a replaced session removed the current one")
	}
}

func TestRegistry_Extend(t *testing.T) {
	r := NewRegistry()
	var expired atomic.Int32
	s := r.Start("u1", KindAdd, 30*time.Millisecond, nil, func(*Session) { expired.Add(1) })
	r.Extend(s, time.Minute)

	time.Sleep(60 * time.Millisecond)
	if expired.Load() != 0 {
		t.Fatal("extended session expired early")
	}
	r.End(s)
}

func TestSession_TryAcquire(t *testing.T) {
	s := NewRegistry().Start("u1", KindRemove, 0, nil, nil)

	if !s.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if s.TryAcquire() {
		t.Fatal("second TryAcquire should fail while held")
	}
	s.Release()
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("TryAcquire should succeed after Release")
	}
	s.Release()
}

func TestSession_TryAcquireConcurrent(t *testing.T) {
	s := NewRegistry().Start("u1", KindLearning, 0, nil, nil)

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	if acquired.Load() != 1 {
		t.Fatalf("acquired = %d, want exactly 1", acquired.Load())
	}
}

func TestSession_State(t *testing.T) {
	s := NewRegistry().Start("u1", KindLearning, 0, nil, nil)

	s.SetClass("tank")
	if s.Class() != "tank" {
		t.Fatalf("Class() = %q", s.Class())
	}

	s.AddPicks("Hulk", "Thor")
	got := s.AddPicks("Thor", "Storm")
	if want := []string{"Hulk", "Thor", "Storm"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("AddPicks() = %v, want %v", got, want)
	}

	s.SetTargets([]Target{{Class: "tank", Name: "Groot"}})
	if tgt, ok := s.Target(0); !ok || tgt.Name != "Groot" {
		t.Fatalf("Target(0) = %+v, %v", tgt, ok)
	}
	if _, ok := s.Target(1); ok {
		t.Fatal("Target(1) should be out of range")
	}
}
