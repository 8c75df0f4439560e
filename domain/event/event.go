package event

import (
	"encoding/json"

	"meet-lab/domain"
)

// DomainEvent is anything the coordinator pushes to live connections of a
// meeting room. Delivery through sinks is best-effort and at-most-once.
type DomainEvent interface {
	MeetingID() domain.MeetingID
	Name() string
}

// CreatorJoined is broadcast when the meeting creator's connection enters
// the room.
type CreatorJoined struct {
	Meeting domain.MeetingID
	Email   string
}

func (e CreatorJoined) MeetingID() domain.MeetingID { return e.Meeting }
func (e CreatorJoined) Name() string                { return "creator-joined" }

// PeerJoined notifies the room that an admitted participant (re)connected.
type PeerJoined struct {
	Meeting      domain.MeetingID
	PeerID       string
	Email        string
	Participants []domain.Participant
}

func (e PeerJoined) MeetingID() domain.MeetingID { return e.Meeting }
func (e PeerJoined) Name() string                { return "new-peer" }

// UserWaiting carries the updated waiting list; sent to the requester and
// to the creator's live connection.
type UserWaiting struct {
	Meeting        domain.MeetingID
	Email          string
	ConnectionID   string
	WaitingMembers []domain.Participant
}

func (e UserWaiting) MeetingID() domain.MeetingID { return e.Meeting }
func (e UserWaiting) Name() string                { return "user-waiting" }

// UserApproved tells a waiting connection it has been admitted, and the
// room that the participant list changed.
type UserApproved struct {
	Meeting      domain.MeetingID
	Email        string
	Participants []domain.Participant
}

func (e UserApproved) MeetingID() domain.MeetingID { return e.Meeting }
func (e UserApproved) Name() string                { return "user-approved" }

// MeetingEnded is broadcast to every live connection before the room is
// torn down.
type MeetingEnded struct {
	Meeting domain.MeetingID
}

func (e MeetingEnded) MeetingID() domain.MeetingID { return e.Meeting }
func (e MeetingEnded) Name() string                { return "meeting-ended" }

// SignalBroadcast relays an opaque call-signaling blob to the whole room,
// sender excluded. The coordinator never inspects the payload.
type SignalBroadcast struct {
	Meeting domain.MeetingID
	FromID  string
	Data    json.RawMessage
}

func (e SignalBroadcast) MeetingID() domain.MeetingID { return e.Meeting }
func (e SignalBroadcast) Name() string                { return "signal" }

// DirectSignal is a peer-to-peer signaling blob addressed to one connection.
type DirectSignal struct {
	Meeting  domain.MeetingID
	CallerID string
	Data     json.RawMessage
}

func (e DirectSignal) MeetingID() domain.MeetingID { return e.Meeting }
func (e DirectSignal) Name() string                { return "user-signal" }
