package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meet-lab/contract"
	"meet-lab/domain"
)

// Ensure *BacklogWorker implements the contract.Worker interface at compile
// time, so a drift is caught here instead of at wiring time.
var _ contract.Worker = (*BacklogWorker)(nil)

// DepthSource exposes queue depths of the per-meeting inboxes.
type DepthSource interface {
	InboxDepths() map[domain.MeetingID]int
}

// SessionCounter exposes live session/room totals of the registry.
type SessionCounter interface {
	Counts() (sessions int, rooms int)
}

// BacklogWorker periodically reports live session totals and per-meeting
// inbox depths. Reading lengths is non-blocking; an occasionally stale
// sample is fine because metrics are sampled periodically.
type BacklogWorker struct {
	log            *slog.Logger
	depths         DepthSource
	sessions       SessionCounter
	metricInterval time.Duration
	depthThreshold int
}

func NewBacklogWorker(log *slog.Logger, depths DepthSource,
	sessions SessionCounter, metricInterval time.Duration, depthThreshold int) *BacklogWorker {
	return &BacklogWorker{
		log:            log,
		depths:         depths,
		sessions:       sessions,
		metricInterval: metricInterval,
		depthThreshold: depthThreshold,
	}
}

func (w *BacklogWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *BacklogWorker) report() {
	sessions, rooms := w.sessions.Counts()
	w.log.Debug(fmt.Sprintf("Live sessions: %d across %d rooms", sessions, rooms))

	for meetingID, depth := range w.depths.InboxDepths() {
		if depth >= w.depthThreshold {
			w.log.Warn("Meeting inbox backlog high",
				"meeting_id", meetingID, "depth", depth)
		}
	}
}
