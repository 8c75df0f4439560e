// Package runtime owns the live-session plumbing of the coordinator: the
// connection registry and the per-meeting serialization of mutating
// operations. It orchestrates without containing admission rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"meet-lab/domain"
)

type task struct {
	fn   func() error
	done chan error
}

type inbox struct {
	tasks chan task
	stop  chan struct{}
	// pending counts submitters between pick-up and hand-off; guarded by
	// the coordinator mutex so the janitor never reaps an inbox someone is
	// about to send to.
	pending  int
	lastUsed time.Time
}

// Coordinator serializes every mutating operation of a meeting through a
// single-writer inbox goroutine keyed by meeting id. Submitters block until
// their closure ran, so services keep a synchronous API while the partition
// invariant is protected by message passing instead of shared locks.
//
// Inboxes are created lazily on first dispatch and reaped once idle; Run
// implements contract.Worker so the supervisor owns the janitor lifecycle.
type Coordinator struct {
	mu         sync.Mutex
	log        *slog.Logger
	inboxes    map[domain.MeetingID]*inbox
	bufferSize int
	idleTTL    time.Duration
	reapEvery  time.Duration
}

func NewCoordinator(log *slog.Logger, bufferSize int, idleTTL time.Duration) *Coordinator {
	reapEvery := idleTTL / 2
	if reapEvery <= 0 {
		reapEvery = time.Second
	}
	return &Coordinator{
		log:        log,
		inboxes:    make(map[domain.MeetingID]*inbox),
		bufferSize: bufferSize,
		idleTTL:    idleTTL,
		reapEvery:  reapEvery,
	}
}

// Execute runs fn on the meeting's serial loop and waits for its result.
// Returns ctx.Err() if the caller gives up before the closure was picked up;
// a closure already started always runs to completion (a disconnect never
// rolls back a committed mutation).
func (c *Coordinator) Execute(ctx context.Context, id domain.MeetingID, fn func() error) error {
	box := c.acquire(id)
	defer c.release(box)

	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case box.tasks <- t:
	case <-box.stop:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InboxDepths snapshots pending task counts per meeting for the backlog
// reporter.
func (c *Coordinator) InboxDepths() map[domain.MeetingID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	depths := make(map[domain.MeetingID]int, len(c.inboxes))
	for id, box := range c.inboxes {
		depths[id] = len(box.tasks)
	}
	return depths
}

// Run is the janitor loop: it periodically reaps inboxes that saw no task
// for idleTTL. The meeting record itself is untouched; a later dispatch
// simply recreates the inbox.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.reapEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.stopAll()
			return ctx.Err()
		case <-ticker.C:
			c.reapIdle()
		}
	}
}

func (c *Coordinator) acquire(id domain.MeetingID) *inbox {
	c.mu.Lock()
	defer c.mu.Unlock()

	box, ok := c.inboxes[id]
	if !ok {
		box = &inbox{
			tasks: make(chan task, c.bufferSize),
			stop:  make(chan struct{}),
		}
		c.inboxes[id] = box
		go c.drain(id, box)
	}
	box.pending++
	box.lastUsed = time.Now()
	return box
}

func (c *Coordinator) release(box *inbox) {
	c.mu.Lock()
	box.pending--
	box.lastUsed = time.Now()
	c.mu.Unlock()
}

// drain is the single writer for one meeting. Panics inside a task are
// contained here so one poisoned operation cannot take the inbox down.
func (c *Coordinator) drain(id domain.MeetingID, box *inbox) {
	for {
		select {
		case t := <-box.tasks:
			t.done <- c.runTask(id, t)
		case <-box.stop:
			// Shutdown: answer leftover submissions instead of leaving
			// their callers blocked.
			for {
				select {
				case t := <-box.tasks:
					t.done <- context.Canceled
				default:
					return
				}
			}
		}
	}
}

func (c *Coordinator) runTask(id domain.MeetingID, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Meeting task panicked", "meeting_id", id, "panic", fmt.Sprint(r))
			err = fmt.Errorf("meeting task panic: %v", r)
		}
	}()
	return t.fn()
}

func (c *Coordinator) reapIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.idleTTL)
	for id, box := range c.inboxes {
		if box.pending == 0 && len(box.tasks) == 0 && box.lastUsed.Before(cutoff) {
			close(box.stop)
			delete(c.inboxes, id)
			c.log.Debug("Reaped idle meeting inbox", "meeting_id", id)
		}
	}
}

func (c *Coordinator) stopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, box := range c.inboxes {
		close(box.stop)
		delete(c.inboxes, id)
	}
}
