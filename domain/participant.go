// Package domain contains core concepts of the meeting coordinator.
// This file defines Participant descriptors and their placement inside a
// meeting. No runtime, network, or UI logic should be added here.
package domain

// Participant describes one invited identity: the email the invitation was
// sent to, the invite id generated at scheduling time, and the personal
// meeting link carrying that id.
type Participant struct {
	Email      string
	InviteID   string
	InviteLink string
}

// Placement is the tagged classification of an identity inside a meeting.
// An identity has exactly one placement at any time; admission transitions
// move it between placements and never duplicate it.
type Placement int

const (
	PlacementNone Placement = iota
	PlacementCreator
	PlacementAdmitted
	PlacementWaiting
	PlacementExpected
)

func (p Placement) String() string {
	switch p {
	case PlacementCreator:
		return "creator"
	case PlacementAdmitted:
		return "admitted"
	case PlacementWaiting:
		return "waiting"
	case PlacementExpected:
		return "expected"
	default:
		return "none"
	}
}

// Identity is the claim a connection presents at join time. It is untrusted
// until matched against the meeting record (or carried by a validated join
// token).
type Identity struct {
	Email  string
	UserID string
}
