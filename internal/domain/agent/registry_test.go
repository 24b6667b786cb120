package agent_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/agent"
)

func TestEnsureRegistersOnce(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())

	a := r.Ensure("agent-1", "João", "juridico")
	if a.Status != agent.StatusOnline {
		t.Fatalf("expected new agent online, got %s", a.Status)
	}

	r.MarkBusy("agent-1")
	// Reconnect must not reset the busy status.
	again := r.Ensure("agent-1", "João Souza", "")
	if again.Status != agent.StatusBusy {
		t.Fatalf("expected reconnect to keep busy status, got %s", again.Status)
	}
	if again.Name != "João Souza" {
		t.Fatalf("expected updated name, got %s", again.Name)
	}
	if again.Department != "juridico" {
		t.Fatalf("expected department kept when omitted, got %q", again.Department)
	}
}

func TestAvailablePrefersDepartment(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	r.Ensure("agent-a", "Ana", "financeiro")
	r.Ensure("agent-b", "Bruno", "juridico")

	id, ok := r.Available("juridico")
	if !ok || id != "agent-b" {
		t.Fatalf("expected juridico agent, got %s ok=%v", id, ok)
	}

	// No department match falls back to any online agent,
	// deterministically the lowest id.
	id, ok = r.Available("comercial")
	if !ok || id != "agent-a" {
		t.Fatalf("expected fallback agent-a, got %s ok=%v", id, ok)
	}
}

func TestAvailableSkipsBusyAndAway(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	r.Ensure("agent-a", "Ana", "")
	r.Ensure("agent-b", "Bruno", "")

	r.MarkBusy("agent-a")
	if err := r.SetStatus("agent-b", agent.StatusAway); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id, ok := r.Available(""); ok {
		t.Fatalf("expected nobody available, got %s", id)
	}
}

func TestReleaseOnlyRevertsBusy(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	r.Ensure("agent-a", "Ana", "")

	r.MarkBusy("agent-a")
	r.Release("agent-a")
	if a, _ := r.Get("agent-a"); a.Status != agent.StatusOnline {
		t.Fatalf("expected busy agent released to online, got %s", a.Status)
	}

	// An agent who set themselves away stays away on release.
	if err := r.SetStatus("agent-a", agent.StatusAway); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Release("agent-a")
	if a, _ := r.Get("agent-a"); a.Status != agent.StatusAway {
		t.Fatalf("expected away agent to stay away, got %s", a.Status)
	}
}

func TestSetStatusUnknownAgent(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	if err := r.SetStatus("ghost", agent.StatusOnline); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestOnlineCount(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	if r.OnlineCount() != 0 {
		t.Fatalf("expected 0 online")
	}
	r.Ensure("agent-a", "Ana", "")
	r.Ensure("agent-b", "Bruno", "")
	r.MarkBusy("agent-b")
	if got := r.OnlineCount(); got != 1 {
		t.Fatalf("expected 1 online, got %d", got)
	}
}

func TestMarkAwayBenchesDisconnectedAgent(t *testing.T) {
	r := agent.NewRegistry(zerolog.Nop())
	r.Ensure("agent-a", "Ana", "")

	r.MarkAway("agent-a")
	if a, _ := r.Get("agent-a"); a.Status != agent.StatusAway {
		t.Fatalf("expected away after disconnect, got %s", a.Status)
	}
	if id, ok := r.Available(""); ok {
		t.Fatalf("away agent must not be routable, got %s", id)
	}

	// A busy agent who disconnects goes away and stays away when their
	// session later closes.
	r.Ensure("agent-b", "Bruno", "")
	r.MarkBusy("agent-b")
	r.MarkAway("agent-b")
	r.Release("agent-b")
	if a, _ := r.Get("agent-b"); a.Status != agent.StatusAway {
		t.Fatalf("expected disconnected agent to stay away, got %s", a.Status)
	}

	// Unknown ids are ignored.
	r.MarkAway("ghost")
}
