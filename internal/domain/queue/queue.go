// Package queue holds sessions awaiting a human agent and matches them
// against agent availability on a fixed tick.
package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// estimatePerAgentSeconds is the assumed handling time per queued
	// session per online agent.
	estimatePerAgentSeconds = 180
	// estimateNoAgentsSeconds is the fixed estimate when nobody is online.
	estimateNoAgentsSeconds = 600
)

// Entry is the transient routing metadata for one waiting session.
type Entry struct {
	SessionID   string    `json:"chat_id"`
	Department  string    `json:"department,omitempty"`
	Priority    int       `json:"priority"`
	WaitSeconds int       `json:"wait_seconds"`
	EnqueuedAt  time.Time `json:"enqueued_at"`

	// lastUpdate is the accumulated wait at which the user last got a
	// queue-position push.
	lastUpdate int
}

// Queue is the set of sessions waiting for an agent, keyed by session id.
type Queue struct {
	mu      sync.Mutex
	entries map[string]*Entry
	online  func() int
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a queue. online reports the current number of online agents
// and feeds the wait estimate.
func New(online func() int, log zerolog.Logger) *Queue {
	return &Queue{
		entries: make(map[string]*Entry),
		online:  online,
		now:     time.Now,
		log:     log.With().Str("component", "routing-queue").Logger(),
	}
}

// Enqueue adds a waiting session. Re-enqueuing an already-queued session
// is a no-op; fresh reports whether the entry was newly created. The
// returned position is 1-based within the current routing order.
func (q *Queue) Enqueue(sessionID, department string, priority int) (position int, fresh bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[sessionID]; !exists {
		q.entries[sessionID] = &Entry{
			SessionID:  sessionID,
			Department: department,
			Priority:   priority,
			EnqueuedAt: q.now(),
		}
		fresh = true
		q.log.Info().
			Str("chat_id", sessionID).
			Int("priority", priority).
			Int("queue_depth", len(q.entries)).
			Msg("session enqueued")
	}
	return q.positionLocked(sessionID), fresh
}

// Remove drops a session from the queue, if present.
func (q *Queue) Remove(sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[sessionID]; ok {
		delete(q.entries, sessionID)
		q.log.Debug().Str("chat_id", sessionID).Msg("session dequeued")
	}
}

// Len returns the number of waiting sessions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Sorted returns a snapshot of all entries in routing order: higher
// priority first, then longer wait, then earlier enqueue.
func (q *Queue) Sorted() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sortedLocked()
}

// Age adds seconds to a session's accumulated wait and returns the new
// value. ok is false when the session is no longer queued.
func (q *Queue) Age(sessionID string, seconds int) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[sessionID]
	if !ok {
		return 0, false
	}
	e.WaitSeconds += seconds
	return e.WaitSeconds, true
}

// UpdateDue reports whether a session's wait has grown by at least
// every seconds since its last queue-position push, and records the
// push when it has. The tick length does not have to divide the update
// interval; the push fires on the first tick past it.
func (q *Queue) UpdateDue(sessionID string, every int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[sessionID]
	if !ok || every <= 0 {
		return false
	}
	if e.WaitSeconds-e.lastUpdate < every {
		return false
	}
	e.lastUpdate = e.WaitSeconds
	return true
}

// Position returns the 1-based routing position of a session, or 0 when
// it is not queued.
func (q *Queue) Position(sessionID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.positionLocked(sessionID)
}

// Estimate returns the estimated wait in seconds for a newly queued
// session given current depth and agent availability.
func (q *Queue) Estimate() int {
	q.mu.Lock()
	depth := len(q.entries)
	q.mu.Unlock()

	agents := q.online()
	if agents <= 0 {
		return estimateNoAgentsSeconds
	}
	batches := (depth + agents - 1) / agents
	if batches < 1 {
		batches = 1
	}
	return batches * estimatePerAgentSeconds
}

func (q *Queue) sortedLocked() []Entry {
	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].WaitSeconds != out[j].WaitSeconds {
			return out[i].WaitSeconds > out[j].WaitSeconds
		}
		return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
	})
	return out
}

func (q *Queue) positionLocked(sessionID string) int {
	for i, e := range q.sortedLocked() {
		if e.SessionID == sessionID {
			return i + 1
		}
	}
	return 0
}
