package mqtt

import (
	"fmt"
	"testing"
)

func TestOfflineQueuePushDrain(t *testing.T) {
	q := newOfflineQueue(10)

	for i := 0; i < 3; i++ {
		q.push(queuedMsg{topic: Topic, payload: []byte(fmt.Sprintf("msg%d", i))})
	}
	if q.len() != 3 {
		t.Fatalf("len = %d, want 3", q.len())
	}

	msgs, dropped := q.drain()
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(msgs) != 3 {
		t.Fatalf("drained %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		want := fmt.Sprintf("msg%d", i)
		if string(m.payload) != want {
			t.Errorf("message %d = %q, want %q (FIFO order)", i, m.payload, want)
		}
	}
	if q.len() != 0 {
		t.Errorf("len after drain = %d, want 0", q.len())
	}
}

func TestOfflineQueueDropsOldestWhenFull(t *testing.T) {
	q := newOfflineQueue(3)
	for i := 0; i < 5; i++ {
		q.push(queuedMsg{payload: []byte(fmt.Sprintf("msg%d", i))})
	}

	msgs, dropped := q.drain()
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if len(msgs) != 3 {
		t.Fatalf("drained %d messages, want 3", len(msgs))
	}
	// The two oldest were discarded.
	want := []string{"msg2", "msg3", "msg4"}
	for i, m := range msgs {
		if string(m.payload) != want[i] {
			t.Errorf("message %d = %q, want %q", i, m.payload, want[i])
		}
	}
}

func TestOfflineQueueDrainResetsDropCount(t *testing.T) {
	q := newOfflineQueue(1)
	q.push(queuedMsg{payload: []byte("a")})
	q.push(queuedMsg{payload: []byte("b")})

	if _, dropped := q.drain(); dropped != 1 {
		t.Errorf("first drain dropped = %d, want 1", dropped)
	}

	q.push(queuedMsg{payload: []byte("c")})
	if _, dropped := q.drain(); dropped != 0 {
		t.Errorf("second drain dropped = %d, want 0", dropped)
	}
}

func TestOfflineQueueEmptyDrain(t *testing.T) {
	q := newOfflineQueue(4)
	msgs, dropped := q.drain()
	if msgs != nil || dropped != 0 {
		t.Errorf("empty drain = (%v, %d), want (nil, 0)", msgs, dropped)
	}
}
