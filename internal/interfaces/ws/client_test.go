package ws

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestSendRawAfterCloseIsDropped(t *testing.T) {
	c := NewClient("conn-1", "user-1", "user", nil, nil, nil, zerolog.Nop())

	if !c.SendRaw([]byte(`{}`)) {
		t.Fatalf("expected send to succeed before close")
	}
	c.CloseSend()
	if c.SendRaw([]byte(`{}`)) {
		t.Fatalf("expected send after close to be dropped")
	}
	// Repeated close stays a no-op.
	c.CloseSend()
}

func TestCloseSendRacesBroadcastersSafely(t *testing.T) {
	raw := []byte(`{"type":"new_message"}`)

	// Broadcasters hold client snapshots taken before the unregister, so
	// sends and the close overlap freely; none may panic.
	for i := 0; i < 200; i++ {
		c := NewClient("conn-1", "user-1", "user", nil, nil, nil, zerolog.Nop())

		var wg sync.WaitGroup
		for s := 0; s < 4; s++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					c.SendRaw(raw)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.CloseSend()
		}()
		wg.Wait()

		if c.SendRaw(raw) {
			t.Fatalf("expected send after close to be dropped")
		}
	}
}
