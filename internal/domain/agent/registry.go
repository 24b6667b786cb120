// Package agent tracks human responders and their availability.
package agent

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Status is the availability state of an agent.
type Status string

const (
	StatusOnline Status = "online"
	StatusAway   Status = "away"
	StatusBusy   Status = "busy"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Agent is a human responder. Agents are referenced by id from sessions,
// never owned by them.
type Agent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Status     Status `json:"status"`
}

// ErrAgentNotFound is returned when an agent id is not registered.
var ErrAgentNotFound = errors.New("agent not found")

// Registry is the process-wide agent status map. It is mutated only by
// the routing engine and by explicit status-change calls.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	log    zerolog.Logger
}

// NewRegistry creates an empty agent registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
		log:    log.With().Str("component", "agent-registry").Logger(),
	}
}

// Ensure registers the agent if unknown and returns it. A reconnecting
// agent keeps its previous status unless it was offline-only state.
func (r *Registry) Ensure(id, name, department string) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[id]; ok {
		if name != "" {
			a.Name = name
		}
		if department != "" {
			a.Department = department
		}
		return a
	}

	a := &Agent{ID: id, Name: name, Department: department, Status: StatusOnline}
	r.agents[id] = a
	r.log.Info().Str("agent_id", id).Str("department", department).Msg("agent registered")
	return a
}

// Get returns a copy of the agent.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return Agent{}, false
	}
	return *a, true
}

// SetStatus applies an explicit status change.
func (r *Registry) SetStatus(id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return ErrAgentNotFound
	}
	if a.Status != status {
		r.log.Info().
			Str("agent_id", id).
			Str("from", string(a.Status)).
			Str("to", string(status)).
			Msg("agent status changed")
	}
	a.Status = status
	return nil
}

// Available picks an online agent, preferring a department match and
// falling back to any online agent. Returns false when nobody is online.
func (r *Registry) Available(department string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fallback := ""
	for _, id := range r.sortedIDs() {
		a := r.agents[id]
		if a.Status != StatusOnline {
			continue
		}
		if department != "" && a.Department == department {
			return a.ID, true
		}
		if fallback == "" {
			fallback = a.ID
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// MarkBusy flips an agent to busy when a session is attached to them.
func (r *Registry) MarkBusy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[id]; ok {
		a.Status = StatusBusy
	}
}

// Release reverts a busy agent to online when their session closes.
// Agents who set themselves away stay away.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[id]; ok && a.Status == StatusBusy {
		a.Status = StatusOnline
		r.log.Info().Str("agent_id", id).Msg("agent released")
	}
}

// MarkAway benches an agent whose connection dropped so the routing
// tick stops assigning sessions to them. Unknown ids are ignored.
func (r *Registry) MarkAway(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[id]; ok && a.Status != StatusAway {
		a.Status = StatusAway
		r.log.Info().Str("agent_id", id).Msg("agent away after disconnect")
	}
}

// OnlineCount returns the number of agents currently online.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.agents {
		if a.Status == StatusOnline {
			n++
		}
	}
	return n
}

// Snapshot returns all agents sorted by id.
func (r *Registry) Snapshot() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.agents))
	for _, id := range r.sortedIDs() {
		out = append(out, *r.agents[id])
	}
	return out
}

// sortedIDs keeps iteration deterministic; callers hold the lock.
func (r *Registry) sortedIDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
