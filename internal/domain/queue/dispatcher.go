package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/domain/chat"
	"licitahub/services/support-chat/internal/infrastructure/metrics"
)

// Matchmaker is the slice of the chat service the dispatcher drives.
type Matchmaker interface {
	// Assign attaches an agent to a waiting session and notifies the
	// user, including the wait they experienced.
	Assign(ctx context.Context, sessionID, agentID string, waited time.Duration) error
	// PushQueueUpdate sends a queue-position and estimated-wait update
	// to the session's user.
	PushQueueUpdate(sessionID string, position, waitSeconds, estimateSeconds int)
}

// AgentPool supplies available agents for matching.
type AgentPool interface {
	Available(department string) (string, bool)
}

// Dispatcher runs the routing tick: it matches queued sessions to idle
// agents in priority order and ages the rest.
type Dispatcher struct {
	queue          *Queue
	pool           AgentPool
	matchmaker     Matchmaker
	interval       time.Duration
	updateInterval time.Duration
	log            zerolog.Logger
	done           chan struct{}
	wg             sync.WaitGroup
	startOnce      sync.Once
	stopOnce       sync.Once
}

// NewDispatcher creates a dispatcher ticking at interval. updateInterval
// is how long a session waits between queue-position pushes.
func NewDispatcher(q *Queue, pool AgentPool, mm Matchmaker, interval, updateInterval time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:          q,
		pool:           pool,
		matchmaker:     mm,
		interval:       interval,
		updateInterval: updateInterval,
		log:            log.With().Str("component", "routing-dispatcher").Logger(),
		done:           make(chan struct{}),
	}
}

// Start begins the tick loop in the background. Safe to call more than
// once; only the first call starts the loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run(ctx)
		d.log.Info().Dur("interval", d.interval).Msg("routing dispatcher started")
	})
}

// Stop gracefully shuts the dispatcher down. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.log.Info().Msg("routing dispatcher stopped")
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Debug().Msg("context cancelled, shutting down dispatcher")
			return
		case <-d.done:
			d.log.Debug().Msg("done signal received, shutting down dispatcher")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick performs one matching pass. Exported so tests and operational
// tooling can drive the engine without the timer.
func (d *Dispatcher) Tick(ctx context.Context) {
	start := time.Now()
	matched := 0

	for _, e := range d.queue.Sorted() {
		agentID, ok := d.pool.Available(e.Department)
		if !ok {
			// Nobody online for this entry; lower-priority entries
			// may still match a department-scoped agent.
			continue
		}

		waited := time.Duration(e.WaitSeconds) * time.Second
		if err := d.matchmaker.Assign(ctx, e.SessionID, agentID, waited); err != nil {
			// A failed entry must never stall the rest of the queue.
			if errors.Is(err, chat.ErrSessionNotFound) ||
				errors.Is(err, chat.ErrSessionClosed) ||
				errors.Is(err, chat.ErrAgentAttached) {
				d.queue.Remove(e.SessionID)
				d.log.Warn().Err(err).Str("chat_id", e.SessionID).Msg("dropping unroutable queue entry")
			} else {
				d.log.Error().Err(err).Str("chat_id", e.SessionID).Msg("assignment failed")
			}
			continue
		}

		d.queue.Remove(e.SessionID)
		metrics.RecordAssignment(waited.Seconds())
		matched++
	}

	// Entries still queued accumulate wait; periodically tell users
	// where they stand.
	tickSeconds := int(d.interval / time.Second)
	updateEvery := int(d.updateInterval / time.Second)
	for _, e := range d.queue.Sorted() {
		wait, ok := d.queue.Age(e.SessionID, tickSeconds)
		if !ok {
			continue
		}
		if d.queue.UpdateDue(e.SessionID, updateEvery) {
			d.matchmaker.PushQueueUpdate(e.SessionID, d.queue.Position(e.SessionID), wait, d.queue.Estimate())
		}
	}

	metrics.QueueDepth.Set(float64(d.queue.Len()))
	if matched > 0 {
		d.log.Info().
			Int("matched", matched).
			Int("still_waiting", d.queue.Len()).
			Dur("elapsed", time.Since(start)).
			Msg("routing tick")
	}
}
