//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"meet-lab/domain"
	"meet-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection's outbound channel. Consume must not
// block the caller; slow or dead connections drop events.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry indexes live connections by id and by meeting room. Entries are
// purely in-memory; a restart drops them all while meeting records survive
// in the store.
type IRegistry interface {
	Register(connectionID string, meetingID domain.MeetingID, identity domain.Identity, sink EventSink, isCreator bool)
	Unregister(connectionID string)
	ConnectionsInRoom(meetingID domain.MeetingID) []string
	FindCreatorConnection(meetingID domain.MeetingID) (string, bool)
	FindByEmail(meetingID domain.MeetingID, email string) (string, bool)
	Sink(connectionID string) (EventSink, bool)
	DropRoom(meetingID domain.MeetingID) []string
}
