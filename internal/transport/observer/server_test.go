package observer

import (
	"testing"

	"driftworld/internal/sim/world"
)

type captureSink struct {
	events []world.Event
}

func (c *captureSink) WriteEvent(ev world.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestHubChainsToNextSink(t *testing.T) {
	sink := &captureSink{}
	hub := NewHub(sink)

	ev := world.Event{Tick: 7, Event: world.EventLoadDone, CX: 1, CY: -2}
	if err := hub.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0] != ev {
		t.Fatalf("next sink got %+v", sink.events)
	}
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	id, out := hub.subscribe(nil)
	defer hub.unsubscribe(id)

	if err := hub.WriteEvent(world.Event{Tick: 1, Event: world.EventEvict, CX: 3, CY: 4}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	select {
	case b := <-out:
		if len(b) == 0 {
			t.Fatalf("empty frame")
		}
	default:
		t.Fatalf("subscriber received nothing")
	}
}

func TestHubFilter(t *testing.T) {
	hub := NewHub(nil)
	id, out := hub.subscribe([]string{world.EventEvict})
	defer hub.unsubscribe(id)

	_ = hub.WriteEvent(world.Event{Event: world.EventLoadStart})
	select {
	case <-out:
		t.Fatalf("filtered event delivered")
	default:
	}

	_ = hub.WriteEvent(world.Event{Event: world.EventEvict})
	select {
	case <-out:
	default:
		t.Fatalf("matching event not delivered")
	}

	hub.setFilter(id, nil)
	_ = hub.WriteEvent(world.Event{Event: world.EventLoadStart})
	select {
	case <-out:
	default:
		t.Fatalf("cleared filter still blocking")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub(nil)
	id, out := hub.subscribe(nil)
	defer hub.unsubscribe(id)

	for i := 0; i < 2000; i++ {
		if err := hub.WriteEvent(world.Event{Tick: uint64(i), Event: world.EventSave}); err != nil {
			t.Fatalf("WriteEvent: %v", err)
		}
	}
	if len(out) != cap(out) {
		t.Fatalf("queue length %d, want full %d", len(out), cap(out))
	}
}

func TestLoopbackCheck(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:9000", true},
		{"[::1]:9000", true},
		{"10.0.0.5:9000", false},
		{"example.com:9000", false},
	}
	for _, tc := range cases {
		if got := isLoopbackRemote(tc.addr); got != tc.want {
			t.Fatalf("isLoopbackRemote(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}
