package runtime

import (
	"sync"

	"meet-lab/contract"
	"meet-lab/domain"
)

type Set map[string]struct{}

// Session is the registry's view of one live connection: the room it joined,
// the identity it presented, and its outbound event sink.
type Session struct {
	MeetingID domain.MeetingID
	Identity  domain.Identity
	IsCreator bool
	Sink      contract.EventSink
}

// Registry maps connectionID -> Session and meetingID -> set of connection
// ids, bidirectionally. Entries are purely in-memory: a restart drops every
// live connection while the meeting records in the store survive.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	roomMembers map[domain.MeetingID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]Session),
		roomMembers: make(map[domain.MeetingID]Set),
	}
}

// Register attaches a connection to a meeting room. Thread-safe on both the
// session directory and the room membership set; the room set is initialized
// on the fly for its first member. The creator flag keeps
// FindCreatorConnection an in-memory scan instead of a store lookup.
func (r *Registry) Register(connectionID string, meetingID domain.MeetingID, identity domain.Identity, sink contract.EventSink, isCreator bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connectionID] = Session{
		MeetingID: meetingID,
		Identity:  identity,
		IsCreator: isCreator,
		Sink:      sink,
	}

	if _, ok := r.roomMembers[meetingID]; !ok {
		r.roomMembers[meetingID] = make(Set)
	}
	r.roomMembers[meetingID][connectionID] = struct{}{}
}

// Unregister removes a connection from the registry and its room. O(1) on
// both maps; empty room sets are removed entirely to avoid leaking rooms
// over time. A disconnect never touches the meeting record itself.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connectionID]
	if !ok {
		return
	}
	delete(r.sessions, connectionID)

	if members, ok := r.roomMembers[session.MeetingID]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.roomMembers, session.MeetingID)
		}
	}
}

// ConnectionsInRoom returns a snapshot of the room's live connection ids.
// No consistency guarantee with concurrent registrations.
func (r *Registry) ConnectionsInRoom(meetingID domain.MeetingID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[meetingID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for connectionID := range members {
		ids = append(ids, connectionID)
	}
	return ids
}

// FindCreatorConnection returns the creator's live connection for a room,
// if any.
func (r *Registry) FindCreatorConnection(meetingID domain.MeetingID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connectionID := range r.roomMembers[meetingID] {
		if session, ok := r.sessions[connectionID]; ok && session.IsCreator {
			return connectionID, true
		}
	}
	return "", false
}

// FindByEmail returns the live connection that presented the given email in
// a room, if any.
func (r *Registry) FindByEmail(meetingID domain.MeetingID, email string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connectionID := range r.roomMembers[meetingID] {
		if session, ok := r.sessions[connectionID]; ok && session.Identity.Email == email {
			return connectionID, true
		}
	}
	return "", false
}

// Sink resolves a connection id to its event sink.
func (r *Registry) Sink(connectionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}
	return session.Sink, true
}

// Session returns a copy of the connection's registry entry.
func (r *Registry) Session(connectionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connectionID]
	return session, ok
}

// DropRoom unsubscribes every connection of a room and returns the dropped
// connection ids. Used when the creator ends the meeting.
func (r *Registry) DropRoom(meetingID domain.MeetingID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.roomMembers[meetingID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for connectionID := range members {
		ids = append(ids, connectionID)
		delete(r.sessions, connectionID)
	}
	delete(r.roomMembers, meetingID)
	return ids
}

// Counts reports live session and room totals for the backlog reporter.
func (r *Registry) Counts() (sessions int, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.roomMembers)
}
