package event

import "testing"

type ping struct{ n int }
type pong struct{ s string }

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(ev ping) { got = append(got, ev.n) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	if n := b.DispatchAll(); n != 0 || len(got) != 0 {
		t.Fatalf("Expected nothing before swap, dispatched %d", n)
	}
	if b.Pending() != 2 {
		t.Errorf("Expected 2 pending, got %d", b.Pending())
	}

	b.SwapBuffers()
	Emit(b, ping{3}) // lands in the following tick
	if n := b.DispatchAll(); n != 2 {
		t.Errorf("Expected 2 dispatched, got %d", n)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Unexpected delivery %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("Expected event emitted mid-tick next, got %v", got)
	}
}

func TestBusDispatchOrderAndFanOut(t *testing.T) {
	b := NewBus()
	var log []string
	Subscribe(b, func(ev pong) { log = append(log, "pong:"+ev.s) })
	Subscribe(b, func(ping) { log = append(log, "ping-a") })
	Subscribe(b, func(ping) { log = append(log, "ping-b") })

	Emit(b, ping{})
	Emit(b, pong{"x"})
	b.SwapBuffers()
	b.DispatchAll()

	want := []string{"pong:x", "ping-a", "ping-b"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, log)
			break
		}
	}
}

func TestBusDropsUnsubscribed(t *testing.T) {
	b := NewBus()
	Emit(b, pong{"lost"})
	if b.Pending() != 0 {
		t.Errorf("Expected unsubscribed event dropped, pending=%d", b.Pending())
	}
}
