package ws

import (
	"context"
	"fmt"

	"meet-lab/domain/event"
)

// connectionSink adapts a Client into the coordinator's EventSink contract.
// Consume never blocks: the envelope either fits the client's send buffer
// or is dropped with an error, which the relay counts.
type connectionSink struct {
	client *Client
}

func newConnectionSink(client *Client) *connectionSink {
	return &connectionSink{client: client}
}

func (s *connectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope, err := EncodeEvent(e)
	if err != nil {
		return err
	}
	if !s.client.Enqueue(envelope) {
		return fmt.Errorf("connection %s cannot keep up, event %s dropped", s.client.ID, e.Name())
	}
	return nil
}
