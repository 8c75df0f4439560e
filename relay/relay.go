// Package relay forwards opaque call-signaling payloads between peer
// connections and fans room-wide events out to live sinks. It is content
// agnostic: payloads are never inspected.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"meet-lab/contract"
	"meet-lab/domain"
	"meet-lab/domain/event"
	"meet-lab/observability"
)

// Relay provides best-effort delivery with no guarantees regarding
// ordering across connections, durability, or retries: at-most-once per
// connection, and a dead target simply drops the payload. The sending peer
// owns renegotiation on timeout.
type Relay struct {
	log         *slog.Logger
	registry    contract.IRegistry
	monitoring  *observability.Monitoring
	sinkTimeout time.Duration
}

func NewRelay(log *slog.Logger, registry contract.IRegistry,
	monitoring *observability.Monitoring, sinkTimeout time.Duration) *Relay {
	return &Relay{
		log:         log,
		registry:    registry,
		monitoring:  monitoring,
		sinkTimeout: sinkTimeout,
	}
}

// RelaySignal forwards an opaque payload to a single target connection.
// Silently drops (logged + counted) when the target is not live.
func (r *Relay) RelaySignal(fromConnectionID string, meetingID domain.MeetingID, toConnectionID string, payload json.RawMessage) {
	sink, ok := r.registry.Sink(toConnectionID)
	if !ok {
		r.log.Debug("Signal target not live, dropping",
			"from", fromConnectionID, "to", toConnectionID)
		r.monitoring.SignalDropped()
		return
	}

	e := event.DirectSignal{
		Meeting:  meetingID,
		CallerID: fromConnectionID,
		Data:     payload,
	}
	r.deliver(toConnectionID, sink, e)
}

// Broadcast sends an event to every live connection of the room except the
// excluded ones (typically the sender).
func (r *Relay) Broadcast(meetingID domain.MeetingID, e event.DomainEvent, exclude ...string) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	for _, connectionID := range r.registry.ConnectionsInRoom(meetingID) {
		if _, skip := excluded[connectionID]; skip {
			continue
		}
		if sink, ok := r.registry.Sink(connectionID); ok {
			r.deliver(connectionID, sink, e)
		}
	}
	r.monitoring.Broadcast()
}

// ToConnection delivers an event to one connection; reports whether it was
// live.
func (r *Relay) ToConnection(connectionID string, e event.DomainEvent) bool {
	sink, ok := r.registry.Sink(connectionID)
	if !ok {
		return false
	}
	r.deliver(connectionID, sink, e)
	return true
}

func (r *Relay) deliver(connectionID string, sink contract.EventSink, e event.DomainEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
	defer cancel()

	if err := sink.Consume(ctx, e); err != nil {
		r.log.Debug("Event lost for connection",
			"connection_id", connectionID, "event", e.Name(), "error", err)
		r.monitoring.SignalDropped()
		return
	}
	r.monitoring.SignalRelayed()
}
