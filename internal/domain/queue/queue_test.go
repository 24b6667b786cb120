package queue_test

import (
	"testing"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/queue"
)

func newQueue(online int) *queue.Queue {
	return queue.New(func() int { return online }, zerolog.Nop())
}

func TestEnqueueIsIdempotent(t *testing.T) {
	q := newQueue(1)

	pos, fresh := q.Enqueue("chat-1", "", 2)
	if !fresh || pos != 1 {
		t.Fatalf("expected fresh entry at position 1, got fresh=%v pos=%d", fresh, pos)
	}

	pos, fresh = q.Enqueue("chat-1", "", 2)
	if fresh {
		t.Fatalf("re-enqueue must not be fresh")
	}
	if pos != 1 {
		t.Fatalf("expected stable position 1, got %d", pos)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", q.Len())
	}
}

func TestRoutingOrder(t *testing.T) {
	q := newQueue(1)

	q.Enqueue("chat-low", "", 1)
	q.Enqueue("chat-high", "", 3)
	q.Enqueue("chat-medium", "", 2)

	sorted := q.Sorted()
	want := []string{"chat-high", "chat-medium", "chat-low"}
	for i, id := range want {
		if sorted[i].SessionID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].SessionID)
		}
	}
}

func TestEqualPriorityLongerWaitFirst(t *testing.T) {
	q := newQueue(1)

	q.Enqueue("chat-a", "", 2)
	q.Enqueue("chat-b", "", 2)

	// chat-b has waited longer, so it overtakes despite the later
	// enqueue.
	if _, ok := q.Age("chat-b", 60); !ok {
		t.Fatalf("expected chat-b to be queued")
	}

	sorted := q.Sorted()
	if sorted[0].SessionID != "chat-b" {
		t.Fatalf("expected longer-waiting session first, got %s", sorted[0].SessionID)
	}
}

func TestEqualEverythingEarlierEnqueueFirst(t *testing.T) {
	q := newQueue(1)

	q.Enqueue("chat-first", "", 2)
	q.Enqueue("chat-second", "", 2)

	sorted := q.Sorted()
	if sorted[0].SessionID != "chat-first" {
		t.Fatalf("expected earlier enqueue first, got %s", sorted[0].SessionID)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	q := newQueue(1)
	q.Remove("missing")
	if q.Len() != 0 {
		t.Fatalf("expected empty queue")
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		online int
		want   int
	}{
		{name: "no agents", depth: 3, online: 0, want: 600},
		{name: "empty queue one agent", depth: 0, online: 1, want: 180},
		{name: "depth below agents", depth: 2, online: 3, want: 180},
		{name: "two batches", depth: 4, online: 2, want: 360},
		{name: "uneven batches round up", depth: 5, online: 2, want: 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newQueue(tt.online)
			for i := 0; i < tt.depth; i++ {
				q.Enqueue(string(rune('a'+i)), "", 2)
			}
			if got := q.Estimate(); got != tt.want {
				t.Fatalf("expected estimate %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	q := newQueue(1)

	q.Enqueue("chat-a", "", 1)
	q.Enqueue("chat-b", "", 3)

	if got := q.Position("chat-a"); got != 2 {
		t.Fatalf("expected position 2, got %d", got)
	}
	if got := q.Position("chat-b"); got != 1 {
		t.Fatalf("expected position 1, got %d", got)
	}
	if got := q.Position("missing"); got != 0 {
		t.Fatalf("expected position 0 for unknown session, got %d", got)
	}
}

func TestUpdateDueTracksLastPush(t *testing.T) {
	q := newQueue(1)
	q.Enqueue("chat-a", "", 2)

	if q.UpdateDue("chat-a", 300) {
		t.Fatalf("no update due before any wait accumulated")
	}

	q.Age("chat-a", 315)
	if !q.UpdateDue("chat-a", 300) {
		t.Fatalf("expected update due past the interval")
	}
	if q.UpdateDue("chat-a", 300) {
		t.Fatalf("update must not repeat until another interval passes")
	}

	q.Age("chat-a", 315)
	if !q.UpdateDue("chat-a", 300) {
		t.Fatalf("expected second update after another interval")
	}

	if q.UpdateDue("missing", 300) {
		t.Fatalf("unknown session never has an update due")
	}
	if q.UpdateDue("chat-a", 0) {
		t.Fatalf("non-positive interval disables updates")
	}
}
